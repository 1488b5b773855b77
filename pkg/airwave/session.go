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
	"net/http"
	"strings"
	"sync"
)

// sessionTransport carries cookies whose names net/http refuses to parse.
// AirWave names its session cookie Mercury::Handler::AuthCookieHandler_AMPAuth,
// which the cookie jar silently drops, so those pairs are captured from the raw
// Set-Cookie header and replayed on every later request. Valid cookies are
// left to the jar.
type sessionTransport struct {
	base http.RoundTripper

	mu      sync.Mutex
	cookies map[string]string
	names   []string
}

func newSessionTransport(base http.RoundTripper) *sessionTransport {
	return &sessionTransport{
		base:    base,
		cookies: make(map[string]string),
	}
}

func (s *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if header := s.cookieHeader(); header != "" {
		req = req.Clone(req.Context())

		if existing := req.Header.Get("Cookie"); existing != "" {
			header = existing + "; " + header
		}

		req.Header.Set("Cookie", header)
	}

	resp, err := s.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	s.capture(resp.Header.Values("Set-Cookie"))

	return resp, nil
}

func (s *sessionTransport) capture(lines []string) {
	for _, line := range lines {
		if _, err := http.ParseSetCookie(line); err == nil {
			continue
		}

		name, value, ok := rawCookiePair(line)
		if !ok {
			continue
		}

		s.set(name, value)
	}
}

func (s *sessionTransport) set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, known := s.cookies[name]; !known {
		s.names = append(s.names, name)
	}

	s.cookies[name] = value
}

// reset forgets every captured cookie.
func (s *sessionTransport) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cookies = make(map[string]string)
	s.names = nil
}

func (s *sessionTransport) cookieHeader() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	pairs := make([]string, 0, len(s.names))

	for _, name := range s.names {
		if v := s.cookies[name]; v != "" {
			pairs = append(pairs, name+"="+v)
		}
	}

	return strings.Join(pairs, "; ")
}

// rawCookiePair extracts name and value from the first attribute of a
// Set-Cookie line. An empty value clears the cookie.
func rawCookiePair(line string) (name, value string, ok bool) {
	first, _, _ := strings.Cut(line, ";")

	name, value, ok = strings.Cut(first, "=")
	name = strings.TrimSpace(name)

	if !ok || name == "" || strings.ContainsAny(name, " \t\"") {
		return "", "", false
	}

	return name, strings.Trim(strings.TrimSpace(value), `"`), true
}
