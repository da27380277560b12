package domain

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&Organization{},
		&Profile{},
		&Portfolio{},
		&Asset{},
		&Invitation{},
		&AssetTenant{},
		&Document{},
		&AssetDocument{},
		&Project{},
		&Credit{},
		&Payment{},
		&Notification{},
	}
}
