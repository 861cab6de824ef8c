package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"backoffice/internal/core"
	ports "backoffice/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultFiguresSheet is the tab read when no sheet name is given.
const DefaultFiguresSheet = "Figures"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	figuresSheet  string
}

var (
	_ ports.FigureReader = (*Client)(nil)
	_ ports.BulkReader   = (*Client)(nil)
)

// New creates a client for one spreadsheet; an empty sheet means "Figures".
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheet string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = DefaultFiguresSheet
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, figuresSheet: sheet}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		raw, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = raw
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	// Figures are read-only here.
	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "credentials_size", len(credentialsJSON))
	return service, nil
}

// ListFigures reads the figures tab and keeps the rows of one section.
func (c *Client) ListFigures(ctx context.Context, section core.Section) ([]core.Figure, error) {
	if !section.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownSection, section)
	}
	all, err := c.ListAllFigures(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Figure, 0, len(all))
	for _, f := range all {
		if f.Section == section {
			out = append(out, f)
		}
	}
	return out, nil
}

// ListAllFigures reads every row of the figures tab in one request.
func (c *Client) ListAllFigures(ctx context.Context) ([]core.Figure, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:G", c.figuresSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	figs, skipped, err := parseFigures(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rng, err)
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped malformed figure rows", "sheet", c.figuresSheet, "skipped", skipped)
	}
	return figs, nil
}
