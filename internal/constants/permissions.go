package constants

const (
	ViewData         = "view_data"
	ManageOrg        = "manage_org"
	ManagePortfolios = "manage_portfolios"
	ManageAssets     = "manage_assets"
	AssignTenants    = "assign_tenants"
	UploadDocuments  = "upload_documents"
	PurchaseCredits  = "purchase_credits"
)
