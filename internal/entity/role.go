package entity

type RoleSlug string

const (
	RoleAdmin    RoleSlug = "admin"
	RoleStaff    RoleSlug = "user"
	RoleSalesRep RoleSlug = "sales_rep"
	RoleViewer   RoleSlug = "viewer"
	RoleCustomer RoleSlug = "customer"
)

type Role struct {
	ID   int      `json:"id"`
	Slug RoleSlug `json:"slug"`
	Name string   `json:"name"`
}

type Permission string

const (
	PermLeadsView    Permission = "leads.view"
	PermLeadsCreate  Permission = "leads.create"
	PermLeadsUpdate  Permission = "leads.update"
	PermLeadsDelete  Permission = "leads.delete"
	PermLeadsApprove Permission = "leads.approve"
	PermLeadsReject  Permission = "leads.reject"

	PermContactsView   Permission = "contacts.view"
	PermContactsCreate Permission = "contacts.create"
	PermContactsUpdate Permission = "contacts.update"
	PermContactsDelete Permission = "contacts.delete"
	PermContactsAssign Permission = "contacts.assign"

	PermCustomersViewOwn         Permission = "customers.view_own"
	PermCustomersUpdateOwn       Permission = "customers.update_own"
	PermCustomersUploadDocuments Permission = "customers.upload_documents"

	PermQuestionnairesView     Permission = "questionnaires.view"
	PermQuestionnairesCreate   Permission = "questionnaires.create"
	PermQuestionnairesUpdate   Permission = "questionnaires.update"
	PermQuestionnairesComplete Permission = "questionnaires.complete"

	PermVisaApplicationsView   Permission = "visa_applications.view"
	PermVisaApplicationsCreate Permission = "visa_applications.create"
	PermVisaApplicationsUpdate Permission = "visa_applications.update"

	PermInvoicesView   Permission = "invoices.view"
	PermInvoicesCreate Permission = "invoices.create"
	PermInvoicesUpdate Permission = "invoices.update"
	PermInvoicesDelete Permission = "invoices.delete"
	PermInvoicesSend   Permission = "invoices.send"

	PermUsersView           Permission = "users.view"
	PermUsersCreate         Permission = "users.create"
	PermUsersUpdate         Permission = "users.update"
	PermUsersDelete         Permission = "users.delete"
	PermUsersAssignRoles    Permission = "users.assign_roles"
	PermUsersAssignContacts Permission = "users.assign_contacts"

	PermFilesUpload   Permission = "files.upload"
	PermFilesDownload Permission = "files.download"
)

// rolePermissions lists the capabilities of every non-admin role. Admin is
// granted everything and is not listed.
var rolePermissions = map[RoleSlug]map[Permission]struct{}{
	RoleStaff: permissionSet(
		PermLeadsView,
		PermContactsView, PermContactsUpdate, PermContactsCreate,
		PermQuestionnairesView, PermQuestionnairesUpdate,
		PermVisaApplicationsView, PermVisaApplicationsUpdate,
		PermInvoicesView, PermInvoicesCreate, PermInvoicesUpdate, PermInvoicesSend,
		PermFilesUpload, PermFilesDownload,
	),
	RoleSalesRep: permissionSet(
		PermLeadsView,
		PermContactsView, PermContactsUpdate,
		PermVisaApplicationsView,
		PermInvoicesView, PermInvoicesCreate,
		PermFilesDownload,
	),
	RoleViewer: permissionSet(
		PermLeadsView,
		PermContactsView,
		PermQuestionnairesView,
		PermVisaApplicationsView,
		PermInvoicesView,
		PermFilesDownload,
	),
	RoleCustomer: permissionSet(
		PermCustomersViewOwn, PermCustomersUpdateOwn, PermCustomersUploadDocuments,
		PermQuestionnairesView, PermQuestionnairesComplete,
		PermVisaApplicationsView, PermVisaApplicationsCreate, PermVisaApplicationsUpdate,
		PermInvoicesView,
		PermFilesUpload, PermFilesDownload,
	),
}

func permissionSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

func ParseRoleSlug(s string) (RoleSlug, bool) {
	slug := RoleSlug(s)
	switch slug {
	case RoleAdmin, RoleStaff, RoleSalesRep, RoleViewer, RoleCustomer:
		return slug, true
	}
	return "", false
}

func (r RoleSlug) IsStaff() bool {
	return r == RoleAdmin || r == RoleStaff || r == RoleSalesRep || r == RoleViewer
}

func (r RoleSlug) Can(p Permission) bool {
	if r == RoleAdmin {
		return true
	}
	_, ok := rolePermissions[r][p]
	return ok
}

// AnyCan reports whether at least one of roles grants p.
func AnyCan(roles []RoleSlug, p Permission) bool {
	for _, r := range roles {
		if r.Can(p) {
			return true
		}
	}
	return false
}
