package shared

// Action vocabulary for the permission catalog.
const (
	ActionCreate = "create"
	ActionShow   = "show"
	ActionSearch = "search"
	ActionList   = "list"
	ActionUpdate = "update"
	ActionRemove = "remove"
	ActionLike   = "like"
	ActionStats  = "stats"
)

// Resource vocabulary for the permission catalog.
const (
	ResourceUser       = "user"
	ResourceRole       = "role"
	ResourcePermission = "permission"
	ResourcePost       = "post"
	ResourceComment    = "comment"
	ResourceCategory   = "category"
	ResourceDashboard  = "dashboard"
)

// CatalogMatrix maps every resource to the actions defined for it. The seeder
// materialises this matrix into permission records; tests use it to assert
// catalog completeness.
func CatalogMatrix() map[string][]string {
	return map[string][]string{
		ResourcePermission: {ActionShow, ActionSearch, ActionCreate, ActionUpdate, ActionRemove},
		ResourceRole:       {ActionShow, ActionSearch, ActionCreate, ActionUpdate, ActionRemove},
		ResourceUser:       {ActionShow, ActionSearch, ActionCreate, ActionUpdate, ActionRemove},
		ResourcePost:       {ActionShow, ActionSearch, ActionCreate, ActionUpdate, ActionRemove, ActionLike},
		ResourceComment:    {ActionShow, ActionSearch, ActionList, ActionCreate, ActionUpdate, ActionRemove},
		ResourceCategory:   {ActionShow, ActionSearch, ActionCreate, ActionUpdate, ActionRemove},
		ResourceDashboard:  {ActionStats},
	}
}
