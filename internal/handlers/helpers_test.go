package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/services"
	"github.com/ashmitsharp/moneybook-api/internal/store"
	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

type testServer struct {
	app        *fiber.App
	ledger     *services.Ledger
	categories *services.CategoryService
}

// newTestServer wires the real services over an in-memory store. storage
// may be nil.
func newTestServer(t *testing.T, storage StorageService) *testServer {
	t.Helper()
	log := zerolog.Nop()
	s := store.NewMemory()

	tagger, err := services.NewAutoTagger(s, 0, log)
	require.NoError(t, err)
	t.Cleanup(tagger.Close)

	ledger := services.NewLedger(s, tagger, log)
	categories := services.NewCategoryService(s, log)
	loans := services.NewLoanService(s, ledger, log)
	importer := services.NewImporter(ledger, tagger, log)

	h := &Handlers{
		Accounts:     NewAccountHandler(ledger),
		Categories:   NewCategoryHandler(categories),
		Transactions: NewTransactionHandler(ledger),
		TagPatterns:  NewTagPatternHandler(tagger),
		Loans:        NewLoanHandler(loans),
		Imports:      NewImportHandler(storage, services.NewFileValidator(1<<20), services.NewParser(log), importer, log),
		Admin: NewAdminHandler(ledger, func(ctx context.Context) error {
			return services.SeedDefaults(ctx, categories, ledger)
		}),
	}

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	h.Register(app.Group("/v1"))

	return &testServer{app: app, ledger: ledger, categories: categories}
}

// do sends a JSON request and decodes the JSON response, if any
func (s *testServer) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) account(t *testing.T, name string, opening float64) models.Account {
	t.Helper()
	a, err := s.ledger.CreateAccount(context.Background(), models.AccountInput{
		Name:           name,
		AccountType:    models.AccountBank,
		OpeningBalance: opening,
	})
	require.NoError(t, err)
	return a
}

func (s *testServer) category(t *testing.T, name string, typ models.CategoryType) models.Category {
	t.Helper()
	c, err := s.categories.CreateCategory(context.Background(), models.CategoryInput{Name: name, Type: typ})
	require.NoError(t, err)
	return c
}

func (s *testServer) balance(t *testing.T, id string) float64 {
	t.Helper()
	a, err := s.ledger.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return a.CurrentBalance
}
