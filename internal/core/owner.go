package core

// Owner says who a category or rule belongs to: every user (Global) or exactly one user (OwnedBy).
// The zero value is Global.
type Owner struct {
	userID string
}

func Global() Owner {
	return Owner{}
}

func OwnedBy(userID string) Owner {
	return Owner{userID: userID}
}

func (o Owner) IsGlobal() bool {
	return o.userID == ""
}

// UserID returns the owning user and false for global records.
func (o Owner) UserID() (string, bool) {
	return o.userID, o.userID != ""
}

// VisibleTo reports whether a record with this owner may be read by userID.
func (o Owner) VisibleTo(userID string) bool {
	return o.IsGlobal() || o.userID == userID
}

func (o Owner) String() string {
	if o.IsGlobal() {
		return "global"
	}
	return "user:" + o.userID
}
