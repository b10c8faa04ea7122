package roles

// Role labels recognized by the permission deriver. Unknown labels still
// count toward CanDownload (any assignment at all grants download).
const (
	RoleAdmin       = "admin"
	RoleContributor = "contributor"
)

// Permissions are pure functions of the role set; they carry no storage of
// their own and are recomputed on every role-set change.
type Permissions struct {
	Admin       bool `json:"admin"`
	Contributor bool `json:"contributor"`
	CanUpload   bool `json:"canUpload"`
	CanDownload bool `json:"canDownload"`
}

// Derive computes capability flags from a role set.
func Derive(roleSet []string) Permissions {
	var p Permissions
	for _, r := range roleSet {
		switch r {
		case RoleAdmin:
			p.Admin = true
		case RoleContributor:
			p.Contributor = true
		}
	}
	p.CanUpload = p.Admin || p.Contributor
	p.CanDownload = len(roleSet) > 0
	return p
}
