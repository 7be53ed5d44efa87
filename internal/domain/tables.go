package domain

var Tables = []interface{}{
	// System
	&SysUser{},
	&SysOprLog{},
	// Catalog
	&Product{},
}
