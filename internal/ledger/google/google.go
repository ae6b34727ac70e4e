package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"rewards/internal/core"
	"rewards/internal/ledger"
	"rewards/internal/log"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads the transaction ledger from a Google Sheets tab whose first
// row holds the column headers (ID, Customer ID, Customer Name, Amount, Date).
// The sheet is maintained outside this service, so every call reads it fresh.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ledger.TransactionReader = (*Client)(nil)

// Config selects the spreadsheet and the service account used to read it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Nop()
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger = logger.WithComponent(log.ComponentSheets)
	logger.InfoContext(ctx, "Google Sheets ledger ready", "sheet", sheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// newHTTPClientWithPooling keeps connections to the Sheets API warm between requests.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func (c *Client) AllForCustomer(ctx context.Context, customerID string) ([]core.Transaction, error) {
	return c.ForCustomerInRange(ctx, customerID, core.Date{}, core.Date{})
}

func (c *Client) ForCustomerInRange(ctx context.Context, customerID string, from, to core.Date) ([]core.Transaction, error) {
	all, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	rng := core.DateRange{From: from, To: to}
	var out []core.Transaction
	for _, tx := range all {
		if core.SameCustomer(tx.CustomerID, customerID) && rng.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (c *Client) readAll(ctx context.Context) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	txns, skipped, err := parseTransactions(resp.Values)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		c.logger.WarnContext(ctx, "Skipping malformed ledger row", "row", s.Row, "error", s.Err)
	}
	return txns, nil
}

// Ping checks that the spreadsheet is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	return err
}
