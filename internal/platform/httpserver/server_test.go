package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	votingrights "assembly/contexts/assembly-governance/voting-rights"
	"assembly/contexts/assembly-governance/voting-rights/application/workers"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	httptransport "assembly/contexts/assembly-governance/voting-rights/transport/http"
	"assembly/internal/platform/httpserver/docs"
	"assembly/internal/platform/messaging"
	"assembly/internal/platform/metrics"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T) (*Server, votingrights.Module) {
	t.Helper()
	module, logger := newTestModule(t)
	auth := Authenticator{Secret: testSecret, Issuer: "assembly", AllowHeaderActor: true}
	return New(module, auth, metrics.New().Handler(), logger, ""), module
}

func newTestModule(t *testing.T) (votingrights.Module, *slog.Logger) {
	t.Helper()
	units := []entities.Unit{
		{UnitID: "U1", AssemblyID: "asm-1", Label: "Apt 1", Coefficient: decimal.RequireFromString("0.4"), OwnerDocumentID: entities.MustDocumentID("CC-100"), OwnerEmail: "paula@example.com", CurrentRepresentativeID: "id-principal"},
		{UnitID: "U2", AssemblyID: "asm-1", Label: "Apt 2", Coefficient: decimal.RequireFromString("0.6"), OwnerDocumentID: entities.MustDocumentID("CC-200"), CurrentRepresentativeID: "id-representative"},
	}
	identities := []entities.Identity{
		{IdentityID: "id-principal", DocumentID: entities.MustDocumentID("CC-100"), FullName: "Paula Principal", Email: "paula@example.com", Role: entities.RoleOwner},
		{IdentityID: "id-representative", DocumentID: entities.MustDocumentID("CC-200"), FullName: "Rafael Representative", Email: "rafael@example.com", Role: entities.RoleOwner},
		{IdentityID: "id-admin", DocumentID: entities.MustDocumentID("ADM-1"), FullName: "Ada Admin", Role: entities.RoleAdmin},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return votingrights.NewInMemoryModule(units, identities, logger), logger
}

func do(t *testing.T, server *Server, method string, path string, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if actor != "" {
		req.Header.Set("X-User-Id", actor)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestRequestsWithoutActorAreRejected(t *testing.T) {
	server, _ := newTestServer(t)
	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/v1/delegations/digital"},
		{http.MethodGet, "/v1/assemblies/asm-1/quorum"},
		{http.MethodGet, "/v1/votes/v1/tally"},
	} {
		rec := do(t, server, route.method, route.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, rec.Code)
		}
	}
}

func TestBearerTokenResolvesActor(t *testing.T) {
	server, _ := newTestServer(t)
	sign := func(claims jwt.RegisteredClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return token
	}
	valid := sign(jwt.RegisteredClaims{
		Subject:   "id-principal",
		Issuer:    "assembly",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := sign(jwt.RegisteredClaims{
		Subject:   "id-principal",
		Issuer:    "assembly",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	foreign := sign(jwt.RegisteredClaims{
		Subject:   "id-principal",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	cases := map[string]struct {
		token  string
		status int
	}{
		"valid":          {token: valid, status: http.StatusOK},
		"expired":        {token: expired, status: http.StatusUnauthorized},
		"foreign issuer": {token: foreign, status: http.StatusUnauthorized},
		"garbage":        {token: "not-a-jwt", status: http.StatusUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/assemblies/asm-1/representation/id-principal", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			// A bearer token always wins over the dev header.
			req.Header.Set("X-User-Id", "id-admin")
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDelegationAndVotingOverHTTP(t *testing.T) {
	server, module := newTestServer(t)

	rec := do(t, server, http.MethodPost, "/v1/delegations/digital", "id-principal", httptransport.RequestDelegationRequest{
		RepresentativeID: "id-representative",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("request delegation: %d %s", rec.Code, rec.Body.String())
	}
	requested := decode[httptransport.RequestDelegationResponse](t, rec)
	if len(requested.DeliveredChannels) != 1 || requested.DeliveredChannels[0] != "email" {
		t.Fatalf("expected email delivery, got %v", requested.DeliveredChannels)
	}

	signature, err := module.Store.GetSignature(context.Background(), requested.SignatureID)
	if err != nil {
		t.Fatalf("load signature: %v", err)
	}
	wrong := []byte(signature.OTPCode)
	wrong[0] = '0' + (wrong[0]-'0'+1)%10
	rec = do(t, server, http.MethodPost, "/v1/delegations/digital/verify", "id-principal", httptransport.VerifyDelegationRequest{
		SignatureID: requested.SignatureID,
		Code:        string(wrong),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a wrong code, got %d", rec.Code)
	}
	if failure := decode[httptransport.ErrorResponse](t, rec); failure.Code != "invalid_code" {
		t.Fatalf("expected invalid_code, got %+v", failure)
	}

	rec = do(t, server, http.MethodPost, "/v1/delegations/digital/verify", "id-principal", httptransport.VerifyDelegationRequest{
		SignatureID: requested.SignatureID,
		Code:        signature.OTPCode,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", rec.Code, rec.Body.String())
	}
	verified := decode[httptransport.DelegationResponse](t, rec)
	if verified.Proxy.Status != string(entities.ProxyStatusApproved) || verified.UnitsTransferred != 1 {
		t.Fatalf("unexpected verification %+v", verified)
	}

	rec = do(t, server, http.MethodPost, "/v1/votes", "id-admin", httptransport.CreateVoteRequest{
		AssemblyID: "asm-1",
		Title:      "Budget 2026",
		Options:    []httptransport.VoteOptionInput{{Label: "Yes"}, {Label: "No"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create vote: %d %s", rec.Code, rec.Body.String())
	}
	vote := decode[httptransport.VoteResponse](t, rec)

	rec = do(t, server, http.MethodPut, "/v1/votes/"+vote.VoteID+"/status", "id-admin", httptransport.UpdateVoteStatusRequest{Status: "OPEN"})
	if rec.Code != http.StatusOK {
		t.Fatalf("open vote: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, server, http.MethodPost, "/v1/votes/"+vote.VoteID+"/ballots", "id-representative", httptransport.CastVoteRequest{
		OptionID: vote.Options[0].OptionID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("cast: %d %s", rec.Code, rec.Body.String())
	}
	cast := decode[httptransport.CastVoteResponse](t, rec)
	if cast.BallotCount != 2 || cast.Weight != "1" {
		t.Fatalf("expected both units at weight 1, got %+v", cast)
	}

	rec = do(t, server, http.MethodPost, "/v1/votes/"+vote.VoteID+"/ballots", "id-representative", httptransport.CastVoteRequest{
		OptionID: vote.Options[0].OptionID,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on a repeated cast, got %d", rec.Code)
	}

	rec = do(t, server, http.MethodGet, "/v1/votes/"+vote.VoteID+"/tally", "id-principal", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("tally: %d %s", rec.Code, rec.Body.String())
	}
	tally := decode[httptransport.TallyResponse](t, rec)
	if tally.TotalWeight != "1" || tally.Options[0].Percentage != "100" {
		t.Fatalf("unexpected tally %+v", tally)
	}
}

func TestLiveTallyFollowsBallotFeed(t *testing.T) {
	module, logger := newTestModule(t)
	bus := messaging.NewBus(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		bus.Wait()
	}()
	live := &workers.LiveTallyConsumer{
		Subscriber: bus,
		Dedup:      module.Store,
		Votes:      module.Store,
		Clock:      module.Store,
		Logger:     logger,
	}
	if err := live.Start(ctx); err != nil {
		t.Fatalf("start live tally: %v", err)
	}
	module.Handler.Tally.Live = live
	server := New(module, Authenticator{AllowHeaderActor: true}, metrics.New().Handler(), logger, "")
	relay := workers.OutboxRelay{Outbox: module.Store, Publisher: bus, Clock: module.Store, Logger: logger}

	rec := do(t, server, http.MethodPost, "/v1/votes", "id-admin", httptransport.CreateVoteRequest{
		AssemblyID: "asm-1",
		Title:      "Roof repair",
		Options:    []httptransport.VoteOptionInput{{Label: "Yes"}, {Label: "No"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create vote: %d %s", rec.Code, rec.Body.String())
	}
	vote := decode[httptransport.VoteResponse](t, rec)
	rec = do(t, server, http.MethodPut, "/v1/votes/"+vote.VoteID+"/status", "id-admin", httptransport.UpdateVoteStatusRequest{Status: "OPEN"})
	if rec.Code != http.StatusOK {
		t.Fatalf("open vote: %d %s", rec.Code, rec.Body.String())
	}

	liveTally := func() httptransport.TallyResponse {
		rec := do(t, server, http.MethodGet, "/v1/votes/"+vote.VoteID+"/tally/live", "id-principal", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("live tally: %d %s", rec.Code, rec.Body.String())
		}
		return decode[httptransport.TallyResponse](t, rec)
	}
	if first := liveTally(); !first.Live || first.TotalBallots != 0 {
		t.Fatalf("expected an empty live tally, got %+v", first)
	}

	rec = do(t, server, http.MethodPost, "/v1/votes/"+vote.VoteID+"/ballots", "id-representative", httptransport.CastVoteRequest{
		OptionID: vote.Options[1].OptionID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("cast: %d %s", rec.Code, rec.Body.String())
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		tally := liveTally()
		if tally.TotalBallots == 1 {
			if tally.TotalWeight != "0.6" {
				t.Fatalf("expected live weight 0.6, got %+v", tally)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("live tally never caught up: %+v", tally)
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec = do(t, server, http.MethodGet, "/v1/votes/missing/tally/live", "id-principal", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown vote, got %d", rec.Code)
	}
}

func TestAttendanceAndQuorumOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodPost, "/v1/units/U2/attendance", "id-principal", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected owners to be refused at the check-in desk, got %d", rec.Code)
	}

	rec = do(t, server, http.MethodPost, "/v1/units/U2/attendance", "id-admin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, server, http.MethodGet, "/v1/assemblies/asm-1/quorum", "id-principal", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("quorum: %d %s", rec.Code, rec.Body.String())
	}
	quorum := decode[httptransport.QuorumResponse](t, rec)
	if quorum.Percentage != "60" || quorum.PresentUnits != 1 {
		t.Fatalf("unexpected quorum %+v", quorum)
	}
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodPost, "/v1/delegations/digital", "id-principal", httptransport.RequestDelegationRequest{
		RepresentativeDocument: "cc 100",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected self delegation to be 400, got %d", rec.Code)
	}
	if failure := decode[httptransport.ErrorResponse](t, rec); failure.Code != "self_delegation" || failure.Kind != "validation" {
		t.Fatalf("unexpected error body %+v", failure)
	}

	rec = do(t, server, http.MethodPost, "/v1/votes", "id-principal", httptransport.CreateVoteRequest{AssemblyID: "asm-1", Title: "x", Options: []httptransport.VoteOptionInput{{Label: "a"}}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected non-admin vote creation to be 403, got %d", rec.Code)
	}

	rec = do(t, server, http.MethodGet, "/v1/votes/missing/tally", "id-principal", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/votes", strings.NewReader(`{"title":"x","unexpected":true}`))
	req.Header.Set("X-User-Id", "id-admin")
	raw := httptest.NewRecorder()
	server.Handler().ServeHTTP(raw, req)
	if raw.Code != http.StatusBadRequest {
		t.Fatalf("expected unknown fields to be rejected, got %d", raw.Code)
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, server, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("unexpected metrics response %d", rec.Code)
	}
}

func TestSwaggerDocumentCoversRoutes(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc); err != nil {
		t.Fatalf("decode swagger doc: %v", err)
	}
	expected := map[string][]string{
		"/v1/delegations/digital":                                   {"post"},
		"/v1/delegations/digital/verify":                            {"post"},
		"/v1/delegations/manual":                                    {"post"},
		"/v1/delegations/{proxy_id}/revoke":                         {"post"},
		"/v1/votes":                                                 {"post"},
		"/v1/votes/{vote_id}":                                       {"patch", "delete"},
		"/v1/votes/{vote_id}/status":                                {"put"},
		"/v1/votes/{vote_id}/ballots":                               {"post"},
		"/v1/votes/{vote_id}/tally":                                 {"get"},
		"/v1/votes/{vote_id}/tally/live":                            {"get"},
		"/v1/units/{unit_id}/attendance":                            {"post"},
		"/v1/assemblies/{assembly_id}/quorum":                       {"get"},
		"/v1/assemblies/{assembly_id}/representation/{identity_id}": {"get"},
	}
	for path, methods := range expected {
		ops, ok := doc.Paths[path]
		if !ok {
			t.Fatalf("missing path in swagger doc: %s", path)
		}
		for _, method := range methods {
			if _, ok := ops[method]; !ok {
				t.Fatalf("missing method %s for path %s", method, path)
			}
		}
	}
}
