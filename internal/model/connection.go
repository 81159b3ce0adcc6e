package model

type ConnectionConfig struct {
	Name     string       `json:"name"`
	Type     DatabaseType `json:"type"`
	Host     string       `json:"host"`
	Port     int          `json:"port"`
	User     string       `json:"user"`
	Password string       `json:"password"`
	Database string       `json:"database"`
	// Path is the database file for sqlite sources.
	Path string `json:"path,omitempty"`
	// URI overrides host/port/user/password for mongodb sources.
	URI string `json:"uri,omitempty"`
}

type ConnectionInfo struct {
	Name     string       `json:"name"`
	Type     DatabaseType `json:"type"`
	Database string       `json:"database"`
	Host     string       `json:"host"`
	Ctime    int64        `json:"ctime"`
}
