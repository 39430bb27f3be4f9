package statelog

import "github.com/navneet-indusworks/indus-daq-firmware/internal/errors"

const defaultDirPerm = 0o755

type Config struct {
	Enabled bool
	DBPath  string
}

func (c Config) Validate() error {
	if c.Enabled && c.DBPath == "" {
		return errors.New(ErrInvalidDBPath)
	}
	return nil
}
