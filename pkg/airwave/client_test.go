/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package airwave

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/airwave/pkg/inventory"
	"github.com/carverauto/airwave/pkg/logger"
	"github.com/carverauto/airwave/pkg/models"
)

const (
	testSessionCookie = "Mercury::Handler::AuthCookieHandler_AMPAuth"
	testSessionValue  = "abc123"

	apListXML = `<?xml version="1.0" encoding="utf-8" ?>
<amp:amp_ap_list version="1" xmlns:amp="http://www.airwave.com">
  <ap id="1064">
    <device_category>controller</device_category>
    <fqdn>wi0-loop.example.com</fqdn>
    <lan_ip>10.0.0.1</lan_ip>
    <mfgr>Aruba</mfgr>
    <model id="13">7010</model>
    <name>wi0</name>
  </ap>
  <ap id="2001">
    <controller_id>1064</controller_id>
    <device_category>thin_ap</device_category>
    <model id="42">AP 305</model>
    <name>ap1</name>
  </ap>
</amp:amp_ap_list>`

	singleAPXML = `<amp:amp_ap_list version="1" xmlns:amp="http://www.airwave.com">
  <ap id="2001">
    <client_count>17</client_count>
    <controller_id>1064</controller_id>
    <device_category>thin_ap</device_category>
    <firmware>6.5.4.9</firmware>
    <fqdn>ap1.example.com</fqdn>
    <lan_ip>10.22.72.12</lan_ip>
    <model id="42">AP 305</model>
    <name>ap1</name>
    <operating_mode>ap</operating_mode>
  </ap>
</amp:amp_ap_list>`

	clientDetailXML = `<amp:amp_client_detail version="1" xmlns:amp="http://www.airwave.com">
  <client mac="33:DD:44:FF:AA:BB">
    <assoc_stat>true</assoc_stat>
    <ap id="2001">ap1</ap>
    <radio_mode>a</radio_mode>
    <ssid>corp</ssid>
    <vlan>610</vlan>
  </client>
</amp:amp_client_detail>`
)

type fakeAirwave struct {
	t          *testing.T
	mu         sync.Mutex
	loginCalls int
	lastMAC    string
	clientXML  string
	// redirectLogin answers /LOGIN with a 302 carrying the session cookie,
	// as AirWave does.
	redirectLogin bool
}

func (f *fakeAirwave) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.loginCalls++
		f.mu.Unlock()

		assert.Equal(f.t, http.MethodPost, r.Method)
		assert.NoError(f.t, r.ParseForm())

		if r.PostForm.Get("credential_0") != "admin" || r.PostForm.Get("credential_1") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		assert.Equal(f.t, "/", r.PostForm.Get("destination"))

		// http.SetCookie drops names containing ':', so write the header raw.
		w.Header().Add("Set-Cookie", testSessionCookie+"="+testSessionValue+"; path=/; HttpOnly")
		w.Header().Add("Set-Cookie", "Mercury::Handler::Cleared=; path=/")

		if f.redirectLogin {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" || !f.authorized(r) {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc(apListPath, func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		if r.URL.Query().Get("id") != "" {
			_, _ = io.WriteString(w, singleAPXML)
			return
		}

		_, _ = io.WriteString(w, apListXML)
	})

	mux.HandleFunc(clientPath, func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		f.mu.Lock()
		f.lastMAC = r.URL.Query().Get("mac")
		f.mu.Unlock()

		_, _ = io.WriteString(w, f.clientXML)
	})

	return mux
}

// authorized reads the Cookie header by hand; r.Cookie skips invalid names.
func (*fakeAirwave) authorized(r *http.Request) bool {
	for _, header := range r.Header.Values("Cookie") {
		for _, pair := range strings.Split(header, ";") {
			if strings.TrimSpace(pair) == testSessionCookie+"="+testSessionValue {
				return true
			}
		}
	}

	return false
}

func newTestClient(t *testing.T, fake *fakeAirwave, password string) *Client {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client, err := NewClient(&models.AirwaveConfig{
		Endpoint: srv.URL,
		Username: "admin",
		Password: password,
	}, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestNewClient_Endpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
		wantErr  bool
	}{
		{name: "bare host gets https", endpoint: "airwave.example.com", want: "https://airwave.example.com"},
		{name: "explicit scheme kept", endpoint: "http://airwave.example.com:8080/", want: "http://airwave.example.com:8080"},
		{name: "whitespace trimmed", endpoint: "  airwave.example.com  ", want: "https://airwave.example.com"},
		{name: "empty endpoint", endpoint: "", wantErr: true},
		{name: "scheme without host", endpoint: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(&models.AirwaveConfig{Endpoint: tt.endpoint}, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errMissingEndpoint)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, client.Endpoint())
		})
	}

	_, err := NewClient(nil, nil)
	assert.ErrorIs(t, err, errMissingEndpoint)
}

func TestLoginAndFetchInventory(t *testing.T) {
	fake := &fakeAirwave{t: t}
	client := newTestClient(t, fake, "secret")
	ctx := context.Background()

	require.NoError(t, client.Login(ctx))

	fake.mu.Lock()
	assert.Equal(t, 1, fake.loginCalls)
	fake.mu.Unlock()

	records, err := client.FetchInventory(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "1064", records[0]["-id"])
	assert.Equal(t, "controller", records[0]["device_category"])
	assert.Equal(t, "2001", records[1]["-id"])
	assert.Equal(t, "1064", records[1]["controller_id"])

	model, ok := records[1]["model"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "AP 305", model[textKey])
}

func TestLogin_RedirectKeepsSession(t *testing.T) {
	fake := &fakeAirwave{t: t, redirectLogin: true}
	client := newTestClient(t, fake, "secret")
	ctx := context.Background()

	require.NoError(t, client.Login(ctx))

	records, err := client.FetchInventory(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLogin_ReplacesSession(t *testing.T) {
	fake := &fakeAirwave{t: t}
	client := newTestClient(t, fake, "secret")
	ctx := context.Background()

	require.NoError(t, client.Login(ctx))
	require.NoError(t, client.Login(ctx))

	assert.Equal(t, testSessionCookie+"="+testSessionValue, client.session.cookieHeader())

	_, err := client.FetchInventory(ctx)
	require.NoError(t, err)
}

func TestFetchInventory_WithoutLogin(t *testing.T) {
	client := newTestClient(t, &fakeAirwave{t: t}, "secret")

	_, err := client.FetchInventory(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnexpectedStatusCode)
	assert.Contains(t, err.Error(), "403")
}

func TestLogin_BadCredentials(t *testing.T) {
	client := newTestClient(t, &fakeAirwave{t: t}, "wrong")

	err := client.Login(context.Background())
	require.ErrorIs(t, err, ErrLoginFailed)
	assert.Contains(t, err.Error(), "401")
}

func TestLogin_TransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transportErr := errors.New("connection refused")

	mockHTTP := NewMockHTTPClient(ctrl)
	mockHTTP.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://airwave.example.com/LOGIN", req.URL.String())
		assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))

		return nil, transportErr
	})

	client, err := NewClient(&models.AirwaveConfig{Endpoint: "airwave.example.com"},
		logger.NewTestLogger(), WithHTTPClient(mockHTTP))
	require.NoError(t, err)

	err = client.Login(context.Background())
	require.ErrorIs(t, err, ErrLoginFailed)
	assert.ErrorIs(t, err, transportErr)
}

func TestClientAssociation(t *testing.T) {
	fake := &fakeAirwave{t: t, clientXML: clientDetailXML}
	client := newTestClient(t, fake, "secret")
	ctx := context.Background()

	require.NoError(t, client.Login(ctx))

	assoc, err := client.ClientAssociation(ctx, "33:dd:44:ff:aa:bb")
	require.NoError(t, err)

	fake.mu.Lock()
	assert.Equal(t, "33:DD:44:FF:AA:BB", fake.lastMAC)
	fake.mu.Unlock()
	assert.Equal(t, &ClientAssociation{
		MAC:           "33:DD:44:FF:AA:BB",
		APID:          "2001",
		APName:        "ap1",
		Radio:         "a",
		SSID:          "corp",
		VLAN:          "610",
		ControllerID:  "1064",
		APFQDN:        "ap1.example.com",
		LanIP:         "10.22.72.12",
		Model:         "AP 305",
		Firmware:      "6.5.4.9",
		OperatingMode: "ap",
		ClientCount:   "17",
	}, assoc)
}

func TestClientAssociation_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name:    "invalid mac",
			body:    `<amp:amp_client_detail version="1"><error>Invalid MAC address</error></amp:amp_client_detail>`,
			wantErr: ErrInvalidMAC,
		},
		{
			name: "not associated",
			body: `<amp:amp_client_detail version="1"><client mac="AA"><assoc_stat>false</assoc_stat></client>` +
				`</amp:amp_client_detail>`,
			wantErr: ErrClientNotFound,
		},
		{
			name:    "unknown client",
			body:    `<amp:amp_client_detail version="1"/>`,
			wantErr: ErrClientNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAirwave{t: t, clientXML: tt.body}
			client := newTestClient(t, fake, "secret")
			ctx := context.Background()

			require.NoError(t, client.Login(ctx))

			_, err := client.ClientAssociation(ctx, "aa:bb")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseAPList(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantIDs []string
		wantErr bool
	}{
		{
			name:    "xml list",
			data:    apListXML,
			wantIDs: []string{"1064", "2001"},
		},
		{
			name:    "xml single ap",
			data:    singleAPXML,
			wantIDs: []string{"2001"},
		},
		{
			name:    "xml empty list",
			data:    `<amp:amp_ap_list version="1" xmlns:amp="http://www.airwave.com"/>`,
			wantIDs: []string{},
		},
		{
			name:    "json ap list",
			data:    `{"ap":[{"@id":"1"},{"@id":"2"}]}`,
			wantIDs: []string{"1", "2"},
		},
		{
			name:    "json namespaced root with single ap",
			data:    `{"amp:amp_ap_list":{"@version":"1","ap":{"@id":"7"}}}`,
			wantIDs: []string{"7"},
		},
		{
			name:    "json bare array",
			data:    `[{"id":"3"}]`,
			wantIDs: []string{"3"},
		},
		{
			name:    "empty document",
			data:    "   ",
			wantIDs: []string{},
		},
		{
			name:    "json scalar",
			data:    `"nope"`,
			wantErr: true,
		},
		{
			name:    "json array of scalars",
			data:    `[1, 2]`,
			wantErr: true,
		},
		{
			name:    "ambiguous object",
			data:    `{"switches":[], "routers":[]}`,
			wantErr: true,
		},
		{
			name:    "broken xml",
			data:    `<amp:amp_ap_list><ap></amp:amp_ap_list>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ParseAPList([]byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnexpectedPayload)
				return
			}

			require.NoError(t, err)

			ids := make([]string, 0, len(records))
			for _, r := range records {
				for _, key := range []string{"-id", "@id", "id"} {
					if id, ok := r[key].(string); ok {
						ids = append(ids, id)
						break
					}
				}
			}

			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestClose_WithInjectedClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, err := NewClient(&models.AirwaveConfig{Endpoint: "airwave.example.com"},
		logger.NewTestLogger(), WithHTTPClient(NewMockHTTPClient(ctrl)))
	require.NoError(t, err)

	assert.NotPanics(t, client.Close)
	assert.True(t, strings.HasPrefix(client.Endpoint(), "https://"))
}

func TestParseAPList_NormalizesIntoRecords(t *testing.T) {
	raws, err := ParseAPList([]byte(apListXML))
	require.NoError(t, err)

	records, skipped := inventory.NormalizeAll(raws)
	require.Empty(t, skipped)
	require.Len(t, records, 2)

	assert.Equal(t, "1064", records[0].ID)
	assert.Equal(t, "7010", records[0].Model)
	assert.Equal(t, "Aruba", records[0].Manufacturer)
	assert.Equal(t, "wi0-loop.example.com", records[0].FQDN)
	assert.Equal(t, models.RoleController, inventory.Classify(&records[0]))

	assert.Equal(t, "AP 305", records[1].Model)
	assert.Equal(t, models.RoleManagedAP, inventory.Classify(&records[1]))
}
