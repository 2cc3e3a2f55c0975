package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/user/oi_visualizer_go/internal/analysis"
	"github.com/user/oi_visualizer_go/internal/config"
	"github.com/user/oi_visualizer_go/internal/parser"
	"github.com/user/oi_visualizer_go/internal/report"
)

// App struct
type App struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
}

// NewApp creates a new App application struct
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	runtime.WindowSetTitle(a.ctx, "OI Visualizer")
}

func (a *App) sendStatus(message string) {
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, "statusUpdate", message)
	}
	a.logger.Info(message)
}

func (a *App) emit(event string, data ...interface{}) {
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, event, data...)
	}
}

// ProcessCSV is called by the frontend with the text of a dropped or
// picked CSV file. Malformed rows are dropped; it never fails.
func (a *App) ProcessCSV(csvText string) parser.ChartPayload {
	data := parser.ProcessCSVWithColumns(csvText, a.cfg.ColumnMap())
	a.logger.Debug("csv processed", slog.Int("bytes", len(csvText)), slog.Int("samples", data.Len()))
	return parser.NewChartPayload(data)
}

// Summarize returns the statistics shown beside the chart.
func (a *App) Summarize(csvText string) (*analysis.Summary, error) {
	data := parser.ProcessCSVWithColumns(csvText, a.cfg.ColumnMap())
	return analysis.Summarize(data, a.cfg.Analysis.OITolerance, a.cfg.Analysis.TopN)
}

// DomeProjection returns the points of the 3D dome view.
func (a *App) DomeProjection(csvText string) []analysis.DomePoint {
	return analysis.DomeProjection(parser.ProcessCSVWithColumns(csvText, a.cfg.ColumnMap()))
}

// HandleGenerateReport is called from the frontend to start the report
// generation process. Progress and completion are reported via events.
func (a *App) HandleGenerateReport(csvFilePath string, pdfFilePath string) (string, error) {
	a.emit("clearLog")
	a.sendStatus(fmt.Sprintf("Request: CSV=[%s], PDF=[%s]", csvFilePath, pdfFilePath))

	go func() { // Run the main logic in a goroutine to avoid blocking the UI
		defer func() {
			if r := recover(); r != nil {
				errMsg := fmt.Sprintf("PANIC recovered: %v", r)
				a.sendStatus(errMsg)
				a.emit("generationComplete", false, errMsg)
			}
		}()

		a.emit("generationStart")
		ok, msg := a.generateReport(csvFilePath, pdfFilePath)
		a.emit("generationComplete", ok, msg)
	}()

	return "Report generation started in background.", nil
}

// generateReport runs parse, analysis, plotting and PDF output in order.
func (a *App) generateReport(csvFilePath, pdfFilePath string) (bool, string) {
	a.sendStatus(fmt.Sprintf("Parsing: %s", csvFilePath))
	data, err := parser.ParseFile(csvFilePath, a.cfg.ColumnMap())
	if err != nil {
		errMsg := fmt.Sprintf("Error parsing CSV: %v", err)
		a.sendStatus(errMsg)
		return false, errMsg
	}
	a.sendStatus(fmt.Sprintf("Parsed %d samples.", data.Len()))
	if data.Len() == 0 {
		errMsg := "No valid samples parsed, cannot analyze."
		a.sendStatus(errMsg)
		return false, errMsg
	}

	a.sendStatus(fmt.Sprintf("Analyzing data (OI tolerance: %.2f)...", a.cfg.Analysis.OITolerance))
	summary, err := analysis.Summarize(data, a.cfg.Analysis.OITolerance, a.cfg.Analysis.TopN)
	if err != nil {
		errMsg := fmt.Sprintf("Error analyzing data: %v", err)
		a.sendStatus(errMsg)
		return false, errMsg
	}
	a.sendStatus(fmt.Sprintf("Analysis complete. %d OI discrepancies.", len(summary.Discrepancies)))

	a.sendStatus("Generating plots...")
	images, plotErrs := report.RenderPlots(data, a.cfg.Report.DomeBins)
	for _, e := range plotErrs {
		a.sendStatus(fmt.Sprintf("- %v", e))
	}
	a.sendStatus(fmt.Sprintf("Plot generation complete (%d plots).", len(images)))

	a.sendStatus(fmt.Sprintf("Generating PDF: %s...", pdfFilePath))
	if err := report.BuildPDFReportFile(pdfFilePath, data, summary, images); err != nil {
		errMsg := fmt.Sprintf("Error generating PDF report: %v", err)
		a.sendStatus(errMsg)
		return false, errMsg
	}
	successMsg := fmt.Sprintf("PDF report successfully generated: %s", pdfFilePath)
	a.sendStatus(successMsg)
	return true, successMsg
}

// ExportWorkbook writes the accepted samples of csvFilePath to an .xlsx file.
func (a *App) ExportWorkbook(csvFilePath string, xlsxFilePath string) (string, error) {
	data, err := parser.ParseFile(csvFilePath, a.cfg.ColumnMap())
	if err != nil {
		return "", err
	}
	var summary *analysis.Summary
	if data.Len() > 0 {
		summary, _ = analysis.Summarize(data, a.cfg.Analysis.OITolerance, a.cfg.Analysis.TopN)
	}

	f, err := os.Create(xlsxFilePath)
	if err != nil {
		return "", fmt.Errorf("failed to create workbook file: %w", err)
	}
	if err := report.WriteWorkbook(f, data, summary); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	msg := fmt.Sprintf("Exported %d samples to %s", data.Len(), xlsxFilePath)
	a.sendStatus(msg)
	return msg, nil
}
