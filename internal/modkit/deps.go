package modkit

import (
	"beesync/internal/platform/config"
	"beesync/internal/platform/logger"
	"beesync/internal/platform/store"

	"github.com/prometheus/client_golang/prometheus"
)

// Deps holds the infrastructure passed to every module
// Domain collaborators such as the ledger client are passed to module constructors directly
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	SQL     store.TxRunner
	Metrics prometheus.Registerer
}
