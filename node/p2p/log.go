package p2p

import "github.com/btcsuite/btclog"

// log is the package-level subsystem logger, set by UseLogger at
// startup (spec §2.1 ambient logging convention). It is silent until
// wired.
var log = btclog.Disabled

// UseLogger sets the subsystem logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
