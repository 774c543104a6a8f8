// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"grimm.is/degrader/internal/logging"
	"grimm.is/degrader/internal/models"
)

// BuildChainBuilder returns a dispatcher.ChainBuilder that constructs a
// fresh chain for each newly observed flow, with stages in the fixed
// random -> pattern -> bandwidth order (spec.md §9 open question,
// resolved: the order is fixed and does not depend on CLI flag order),
// grounded on original_source/src/queuing_model/queuing_model_chain.rs's
// QueuingModelChain::new. log is attached to the bandwidth stage so it
// can report the burst-smaller-than-packet misconfiguration.
func (c *Config) BuildChainBuilder(log *logging.Logger) func() *models.Chain {
	return func() *models.Chain {
		var stages []models.Model

		if c.Random != nil {
			m := models.NewRandomRange(c.Random.LossRate, c.Random.DelayMin, c.Random.DelayMax)
			if log != nil {
				log.Infof("created %s", m)
			}
			stages = append(stages, m)
		}
		if len(c.Pattern) > 0 {
			m := models.NewPattern(c.Pattern)
			if log != nil {
				log.Infof("created %s", m)
			}
			stages = append(stages, m)
		}
		if c.Bandwidth != nil {
			m := models.NewBandwidth(c.Bandwidth.RateBytesPerS, c.Bandwidth.BurstBytes, c.Bandwidth.BufferBytes)
			if log != nil {
				m = m.WithLogger(log)
				log.Infof("created %s", m)
			}
			stages = append(stages, m)
		}

		if len(stages) == 0 && log != nil {
			log.Infof("no models defined, forwarding all packets without degradation")
		}
		return models.NewChain(stages...)
	}
}
