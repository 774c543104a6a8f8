// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"grimm.is/degrader/internal/errors"
	"grimm.is/degrader/internal/models"
)

// ParsePatternFile reads a pattern file (spec.md §6.2): a header row
// followed by one row per scripted packet, each "delay_ms,drop" with
// drop as 0 or non-zero. Grounded on original_source/src/queuing_model/
// pattern_file_queuing_model.rs's parse_packet_info, which uses the Rust
// `csv` crate with Trim::All and a typed (u64, u32) row deserializer; the
// stdlib encoding/csv equivalent is used here (see DESIGN.md for why no
// third-party CSV library was available to wire instead).
func ParsePatternFile(path string) ([]models.PacketInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindConfig, "open pattern file %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil { // header row, discarded
		return nil, errors.Wrapf(err, errors.KindConfig, "read pattern file header %s", path)
	}

	var info []models.PacketInfo
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindConfig, "read pattern file row %s", path)
		}
		if len(record) != 2 {
			return nil, errors.Errorf(errors.KindConfig, "pattern file %s: expected 2 columns, got %d", path, len(record))
		}

		ms, err := strconv.ParseUint(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindConfig, "pattern file %s: parse delay_ms", path)
		}
		drop, err := strconv.ParseUint(strings.TrimSpace(record[1]), 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindConfig, "pattern file %s: parse drop", path)
		}

		info = append(info, models.PacketInfo{
			Delay: time.Duration(ms) * time.Millisecond,
			Drop:  drop != 0,
		})
	}

	if len(info) == 0 {
		return nil, errors.Errorf(errors.KindConfig, "pattern file %s has no data rows", path)
	}
	return info, nil
}
