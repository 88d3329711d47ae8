package userbackend

// UsersConfig holds configuration for seeding the in-memory store.
type UsersConfig struct {
	Inline []UserRecord `mapstructure:"inline"` // Inline records from config
	File   string       `mapstructure:"file"`   // Path to JSON file containing records
}

// NewUserStore creates a MapStore from the given configuration.
// Records from the file take precedence over inline records with the same
// username.
func NewUserStore(cfg UsersConfig) (*MapStore, error) {
	records := make([]UserRecord, 0, len(cfg.Inline))

	for _, r := range cfg.Inline {
		if r.Username != "" && r.PasswordHash != "" {
			records = append(records, r)
		}
	}

	if cfg.File != "" {
		fileRecords, err := LoadUsersFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		records = append(records, fileRecords...)
	}

	return NewMapStore(records), nil
}
