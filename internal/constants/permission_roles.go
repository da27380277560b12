package constants

import roles "greenledger-backend/internal/pkg/constants"

// PermissionRoles maps each permission to the roles allowed to perform it. Tenant
// reads and uploads are further limited to the assets they occupy (assets.Occupied).
var PermissionRoles = map[string][]string{
	ViewData:         {roles.Owner, roles.Operator, roles.Consultant, roles.Tenant},
	ManageOrg:        {roles.Owner},
	ManagePortfolios: {roles.Owner, roles.Operator},
	ManageAssets:     {roles.Owner, roles.Operator},
	AssignTenants:    {roles.Owner, roles.Operator},
	UploadDocuments:  {roles.Owner, roles.Operator, roles.Consultant, roles.Tenant},
	PurchaseCredits:  {roles.Owner, roles.Operator, roles.Consultant},
}
