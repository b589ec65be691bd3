// SPDX-License-Identifier: AGPL-3.0-or-later
// DMRHub - Run a DMR network server in a single binary
// Copyright (C) 2023-2026 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/USA-RedDragon/DMRHub>

package trunk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PermitClient issues the REST "permit to use" outbound call named in
// spec.md §6 ("REST outbound call (voice-channel permit)"): PUT
// /permit-tg with JSON {"state":5,"dstId":<u32>} to the chosen voice
// channel's address. Any non-200 response is RestPermitFail (spec.md
// §7): the caller releases the grant and denies with PTT_BONK.
type PermitClient interface {
	PermitTG(ctx context.Context, addr string, dstId uint32) error
}

// p25State is the "state" value meaning P25, per spec.md §6.
const p25State = 5

type permitRequest struct {
	State int    `json:"state"`
	DstID uint32 `json:"dstId"`
}

// RESTPermitClient is the concrete HTTP PUT implementation.
type RESTPermitClient struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewRESTPermitClient returns a RESTPermitClient with a bounded timeout,
// matching the teacher's pattern of never letting an outbound call block
// the core event loop indefinitely (spec.md §5).
func NewRESTPermitClient() *RESTPermitClient {
	return &RESTPermitClient{Client: &http.Client{Timeout: 2 * time.Second}}
}

// PermitTG PUTs the permit-to-use notification to addr's /permit-tg.
func (c *RESTPermitClient) PermitTG(ctx context.Context, addr string, dstId uint32) error {
	body, err := json.Marshal(permitRequest{State: p25State, DstID: dstId})
	if err != nil {
		return fmt.Errorf("trunk: marshal permit-tg body: %w", err)
	}
	url := fmt.Sprintf("http://%s/permit-tg", addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("trunk: build permit-tg request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("trunk: permit-tg request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: voice channel %s returned %d", ErrRestPermitFail, addr, resp.StatusCode)
	}
	return nil
}
