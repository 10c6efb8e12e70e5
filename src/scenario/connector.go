package scenario

import (
	"context"

	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/connection"
)

// SQLConnector opens sessions through connection.NewConnection.
type SQLConnector struct {
	Config config.ConnectionConfig
}

func (c SQLConnector) Connect(ctx context.Context) (Connection, error) {
	sqlConnection, err := connection.NewConnection(ctx, c.Config)
	if err != nil {
		return nil, err
	}
	return sqlConnection, nil
}
