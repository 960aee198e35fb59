package client

import (
	"github.com/AntoineGS/loadtracker/internal/config"
	"github.com/AntoineGS/loadtracker/internal/loads"
)

// FromConfig creates a client for the configured server and customer.
func FromConfig(cfg *config.AppConfig, p loads.Period) (*Client, error) {
	var ep Endpoints
	var err error
	if ep.Update, err = cfg.UpdateURL(); err != nil {
		return nil, err
	}
	if ep.Row, err = cfg.RowURL(); err != nil {
		return nil, err
	}
	if ep.Table, err = cfg.TableURL(); err != nil {
		return nil, err
	}
	return New(ep, cfg.Customer, p, cfg.RequestTimeout), nil
}
