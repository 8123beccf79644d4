package handlers

import "github.com/gofiber/fiber/v3"

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Accounts     *AccountHandler
	Categories   *CategoryHandler
	Transactions *TransactionHandler
	TagPatterns  *TagPatternHandler
	Loans        *LoanHandler
	Imports      *ImportHandler
	Admin        *AdminHandler
}

// Register mounts the v1 routes on router
func (h *Handlers) Register(router fiber.Router) {
	// Account routes
	router.Get("/accounts", h.Accounts.ListAccounts)
	router.Post("/accounts", h.Accounts.CreateAccount)
	router.Get("/accounts/:id", h.Accounts.GetAccount)
	router.Put("/accounts/:id", h.Accounts.UpdateAccount)
	router.Delete("/accounts/:id", h.Accounts.DeleteAccount)

	// Category routes
	router.Get("/categories", h.Categories.ListCategories)
	router.Post("/categories", h.Categories.CreateCategory)
	router.Get("/categories/:id", h.Categories.GetCategory)
	router.Put("/categories/:id", h.Categories.UpdateCategory)
	router.Delete("/categories/:id", h.Categories.DeleteCategory)

	// Transaction routes
	router.Get("/transactions", h.Transactions.GetTransactions)
	router.Post("/transactions", h.Transactions.CreateTransaction)
	router.Post("/transactions/bulk-tag", h.Transactions.BulkTag)
	router.Get("/transactions/:id", h.Transactions.GetTransaction)
	router.Patch("/transactions/:id", h.Transactions.UpdateTransaction)
	router.Delete("/transactions/:id", h.Transactions.DeleteTransaction)

	// Auto-tag pattern routes
	router.Get("/tag-patterns", h.TagPatterns.ListPatterns)
	router.Delete("/tag-patterns/:id", h.TagPatterns.DeletePattern)

	// Loan routes
	router.Get("/loans", h.Loans.ListLoans)
	router.Post("/loans", h.Loans.CreateLoan)
	router.Get("/loans/:id", h.Loans.GetLoan)
	router.Patch("/loans/:id", h.Loans.UpdateLoan)
	router.Delete("/loans/:id", h.Loans.DeleteLoan)
	router.Get("/loans/:id/interest", h.Loans.GetInterest)

	// Import routes
	router.Get("/imports/presigned-url", h.Imports.GetPresignedURL)
	router.Post("/imports/process", h.Imports.ProcessUpload)
	router.Post("/imports/statement", h.Imports.UploadStatement)
	router.Post("/imports/save", h.Imports.SaveImport)

	// Maintenance routes
	router.Post("/admin/audit-balances", h.Admin.AuditBalances)
	router.Post("/admin/seed-defaults", h.Admin.SeedDefaults)
}
