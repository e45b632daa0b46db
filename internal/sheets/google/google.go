package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"orcamento/internal/core"
	ports "orcamento/internal/sheets"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the tab that receives the summaries.
const DefaultSheetName = "Resumo"

var summaryHeader = []any{"Mês", "Rendas", "Despesas", "Pagas", "Pendentes", "Saldo", "Nº despesas", "Nº rendas"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.SummaryWriter = (*Client)(nil)

// Config selects the spreadsheet and how to authenticate. Service account
// credentials win over OAuth; inline JSON wins over a file.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string

	// OAuth installed-app flow, see cmd/orcamento-sheets-auth.
	OAuthClientFile string
	OAuthClientJSON string
	OAuthTokenFile  string
	OAuthTokenJSON  string
}

// NewClient creates a Sheets client.
func NewClient(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	creds, err := credentialOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts = append(creds, opts...)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheetNameOrDefault(cfg.SheetName))

	return NewWithService(svc, spreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetNameOrDefault(sheetName),
	}
}

func credentialOptions(ctx context.Context, cfg Config) ([]goption.ClientOption, error) {
	scopes := goption.WithScopes(gsheet.SpreadsheetsScope)
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []goption.ClientOption{goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)), scopes}, nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		return []goption.ClientOption{goption.WithCredentialsFile(cfg.CredentialsFile), scopes}, nil
	case strings.TrimSpace(cfg.OAuthClientJSON) != "" || strings.TrimSpace(cfg.OAuthClientFile) != "":
		ts, err := oauthTokenSource(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return []goption.ClientOption{goption.WithTokenSource(ts)}, nil
	default:
		return nil, errors.New("missing credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE or an OAuth client and token)")
	}
}

func oauthTokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	clientJSON, err := inlineOrFile(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	oc, err := OAuthConfig(clientJSON, "")
	if err != nil {
		return nil, err
	}

	tokenJSON, err := inlineOrFile(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	if len(tokenJSON) == 0 {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	return oc.TokenSource(ctx, &tok), nil
}

// OAuthConfig parses an installed-app OAuth client for the Sheets scope.
func OAuthConfig(clientJSON []byte, redirectURL string) (*oauth2.Config, error) {
	oc, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	if redirectURL != "" {
		oc.RedirectURL = redirectURL
	}
	return oc, nil
}

// SaveToken writes tok to path readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func inlineOrFile(inline, path string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

func sheetNameOrDefault(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return DefaultSheetName
}

// WriteSummaries clears the summary tab and writes a header plus one row
// per month.
func (c *Client) WriteSummaries(ctx context.Context, summaries []core.MonthSummary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:H", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := summaryRows(summaries)
	dataRange := fmt.Sprintf("%s!A1:H%d", c.sheetName, len(rows))
	vr := &gsheet.ValueRange{Values: rows}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", dataRange, err)
	}

	slog.InfoContext(ctx, "Summaries written to Google Sheets",
		"range", dataRange,
		"months", len(summaries))
	return nil
}

func summaryRows(summaries []core.MonthSummary) [][]any {
	rows := make([][]any, 0, len(summaries)+1)
	rows = append(rows, summaryHeader)
	for _, s := range summaries {
		rows = append(rows, []any{
			s.Name,
			s.TotalIncomes,
			s.TotalExpenses,
			s.PaidExpenses,
			s.PendingExpenses,
			s.Balance,
			s.ExpenseCount,
			s.IncomeCount,
		})
	}
	return rows
}
