package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	intconfig "transpo/internal/config"
	"transpo/internal/domain/models"
	h "transpo/internal/http/handlers"
	"transpo/internal/repositories/memory"
	"transpo/internal/services"
)

type testServer struct {
	engine *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	st := memory.New()
	st.PutSchedule(models.Schedule{ID: 1, BusID: 1, BusNumber: "B-01", RouteID: 7, Capacity: 10, AvailableSeats: 10, DepartureTime: time.Now().Add(3 * time.Hour)})
	for _, u := range []models.User{
		{Username: "op", Email: "op@example.com", Role: "operator"},
		{Username: "cond", Email: "cond@example.com", Role: "conductor"},
		{Username: "alice", Email: "alice@example.com", Role: "passenger"},
		{Username: "bob", Email: "bob@example.com", Role: "passenger"},
	} {
		u.PasswordHash = string(hash)
		st.PutUser(u)
	}

	a := &h.API{
		Store: st,
		Auth:  services.AuthService{Users: st.Users(), Secret: []byte("router-test")},
	}
	env := intconfig.Env{CORSOrigins: []string{"http://localhost:5173"}}
	return testServer{engine: NewRouter(env, a), store: st}
}

func (s testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s testServer) login(t *testing.T, who string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": who, "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "memory", decode[map[string]any](t, w)["store"])

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReservationsRequireToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/reservations/book", "", gin.H{"schedule_id": 1, "seat_number": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/reservations/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookSeatsAndCancelFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice")
	bob := s.login(t, "bob")
	cond := s.login(t, "cond")

	w := s.do(t, http.MethodPost, "/api/reservations/book", alice, gin.H{
		"schedule_id": 1, "seat_number": 3, "passenger_name": "Alice", "passenger_email": "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Reservation](t, w)
	assert.Equal(t, 3, created.SeatNumber)

	w = s.do(t, http.MethodPost, "/api/reservations/book", bob, gin.H{
		"schedule_id": 1, "seat_number": 3, "passenger_email": "bob@example.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, decode[map[string]any](t, w)["request_id"])

	w = s.do(t, http.MethodPost, "/api/reservations/book", bob, gin.H{
		"schedule_id": 1, "seat_number": 42, "passenger_email": "bob@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/reservations/book", bob, gin.H{
		"schedule_id": 9, "seat_number": 1, "passenger_email": "bob@example.com",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// bob sees status only, the conductor sees the name
	w = s.do(t, http.MethodGet, "/api/schedules/1/seat-availability", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	grid := decode[services.SeatGrid](t, w)
	assert.Nil(t, grid.Seats[2].PassengerName)

	w = s.do(t, http.MethodGet, "/api/schedules/1/seat-availability", cond, nil)
	grid = decode[services.SeatGrid](t, w)
	require.NotNil(t, grid.Seats[2].PassengerName)
	assert.Equal(t, "Alice", *grid.Seats[2].PassengerName)

	w = s.do(t, http.MethodGet, "/api/schedules/1/seat-info", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.SeatInfo{ReservedSeats: []int{3}, ReservedCount: 1, AvailableSeats: 9, TotalSeats: 10, QuotaSeats: 2, RemainingQuotaSeats: 1}, decode[services.SeatInfo](t, w))
	assert.Contains(t, w.Body.String(), `"reserved_seats":[3]`)

	w = s.do(t, http.MethodGet, "/api/reservations/me", alice, nil)
	assert.Len(t, decode[[]models.Reservation](t, w), 1)

	w = s.do(t, http.MethodDelete, "/api/reservations/"+itoa(created.ID), bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "bob cannot cancel alice's seat")

	w = s.do(t, http.MethodDelete, "/api/reservations/"+itoa(created.ID), alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/reservations/history", alice, nil)
	assert.Len(t, decode[[]models.ReservationHistory](t, w), 2)
}

func TestUpdateAndPaymentAndTicket(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice")
	op := s.login(t, "op")

	w := s.do(t, http.MethodPost, "/api/reservations/book", alice, gin.H{
		"schedule_id": 1, "seat_number": 1, "passenger_email": "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	r := decode[models.Reservation](t, w)
	path := "/api/reservations/" + itoa(r.ID)

	w = s.do(t, http.MethodPut, path, alice, gin.H{
		"schedule_id": 1, "seat_number": 2, "passenger_name": "Alice L", "passenger_email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[models.Reservation](t, w).SeatNumber)

	w = s.do(t, http.MethodGet, path+"/e-ticket", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "unpaid")

	w = s.do(t, http.MethodPost, "/api/payments", alice, gin.H{"reservation_id": r.ID, "payment_method": "card"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, path+"/e-ticket", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	w = s.do(t, http.MethodGet, "/api/reservations/by-email?email=alice@example.com", op, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Reservation](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/reservations", op, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice")
	op := s.login(t, "op")
	cond := s.login(t, "cond")

	w := s.do(t, http.MethodGet, "/api/reservations", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/reservations/by-email?email=x@example.com", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/schedules/1/seats/2", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/schedules/1/seats/2/state", op, gin.H{"state": "DISABLED"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "operators may not touch the overlay")

	w = s.do(t, http.MethodPut, "/api/schedules/1/seats/2/state", cond, gin.H{"state": "disabled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/schedules/1/seats/2", op, nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[services.SeatDetail](t, w)
	require.NotNil(t, d.State)
	assert.Equal(t, "DISABLED", string(*d.State))
	assert.False(t, d.Reserved)

	w = s.do(t, http.MethodGet, "/api/schedules/abc/seat-info", op, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
