// Package sheets exports call summaries to a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/imsolutions/chatdesk/pkg/logging"
)

var sheetsTracer = otel.Tracer("chatdesk.internal.sheets")

// ErrNotConfigured is returned when spreadsheet credentials or the
// spreadsheet id are missing from the environment.
var ErrNotConfigured = errors.New("sheets: not configured")

const (
	// DefaultRange is where call summary rows are appended.
	DefaultRange = "Calls!A:E"

	headerRange   = "Calls!A1:E1"
	rowTimeFormat = "2006-01-02 15:04:05"
)

// Appender records one completed call per row.
type Appender interface {
	AppendCallSummary(ctx context.Context, callSID, phone, duration, summary string) error
}

// HealthChecker probes the spreadsheet connection end to end.
type HealthChecker interface {
	Health(ctx context.Context) (*HealthReport, error)
}

// HealthReport is the result of a successful connection probe.
type HealthReport struct {
	HeaderRow    []string `json:"header_row"`
	UpdatedRange string   `json:"updated_range"`
}

// Client talks to the Google Sheets API for a single spreadsheet.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	rangeName     string
	logger        *logging.Logger
	now           func() time.Time
}

// New builds a sheets client from service-account credentials JSON.
// Returns ErrNotConfigured when the spreadsheet id or credentials are empty.
func New(ctx context.Context, credentialsJSON []byte, spreadsheetID, rangeName string, logger *logging.Logger) (*Client, error) {
	if spreadsheetID == "" || len(credentialsJSON) == 0 {
		return nil, ErrNotConfigured
	}
	if rangeName == "" {
		rangeName = DefaultRange
	}
	if logger == nil {
		logger = logging.Default()
	}
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		rangeName:     rangeName,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// AppendCallSummary appends one row:
// timestamp, call SID, caller phone, duration in seconds, summary text.
func (c *Client) AppendCallSummary(ctx context.Context, callSID, phone, duration, summary string) error {
	ctx, span := sheetsTracer.Start(ctx, "sheets.AppendCallSummary")
	defer span.End()
	span.SetAttributes(attribute.String("call.sid", callSID))

	row := summaryRow(c.now(), callSID, phone, duration, summary)
	body := &sheetsapi.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.rangeName, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append call summary: %w", err)
	}
	c.logger.Info("call summary saved to spreadsheet", "call_sid", callSID)
	return nil
}

// Health reads the header row and appends a probe row, exercising both
// read and write permissions on the configured spreadsheet.
func (c *Client) Health(ctx context.Context) (*HealthReport, error) {
	ctx, span := sheetsTracer.Start(ctx, "sheets.Health")
	defer span.End()

	read, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, headerRange).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	probe := summaryRow(c.now(), "TEST_CALL_SID", "TEST_PHONE", "0", "Test connection successful")
	body := &sheetsapi.ValueRange{Values: [][]any{probe}}
	wrote, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.rangeName, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("append probe row: %w", err)
	}

	report := &HealthReport{HeaderRow: []string{}}
	if len(read.Values) > 0 {
		for _, cell := range read.Values[0] {
			report.HeaderRow = append(report.HeaderRow, fmt.Sprint(cell))
		}
	}
	if wrote.Updates != nil {
		report.UpdatedRange = wrote.Updates.UpdatedRange
	}
	return report, nil
}

func summaryRow(at time.Time, callSID, phone, duration, summary string) []any {
	return []any{at.Format(rowTimeFormat), callSID, phone, duration, summary}
}
