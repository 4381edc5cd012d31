package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/csv"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/ingestion"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/model"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/validation"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClientStore struct {
	clients map[uuid.UUID]model.Client

	topClients []model.Client
	topCutoff  time.Time
	topN       int
}

func (f *fakeClientStore) FindByID(ctx context.Context, id uuid.UUID) (model.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return model.Client{}, apperror.ClientNotFound(id)
	}
	return c, nil
}

func (f *fakeClientStore) Update(ctx context.Context, c model.Client) (model.Client, error) {
	if _, ok := f.clients[c.ID]; !ok {
		return model.Client{}, apperror.ClientNotFound(c.ID)
	}
	f.clients[c.ID] = c
	return c, nil
}

func (f *fakeClientStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.clients[id]; !ok {
		return apperror.ClientNotFound(id)
	}
	delete(f.clients, id)
	return nil
}

func (f *fakeClientStore) TopByLoyaltyPoints(ctx context.Context, cutoff time.Time, n int) ([]model.Client, error) {
	f.topCutoff = cutoff
	f.topN = n
	return f.topClients, nil
}

type fakeIngestor struct {
	upload ingestion.Upload
	kind   csv.Kind
	body   string
	err    error
}

func (f *fakeIngestor) IngestFile(ctx context.Context, upload ingestion.Upload, kind csv.Kind) error {
	f.upload = upload
	f.kind = kind
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(upload.Content)
	f.body = buf.String()
	return f.err
}

type envelope struct {
	Status      int                   `json:"status"`
	ErrorCode   string                `json:"error_code"`
	Message     string                `json:"message"`
	ErrorFields []apperror.FieldError `json:"error_fields"`
	Timestamp   int64                 `json:"timestamp"`
}

type handlerFixture struct {
	e        *echo.Echo
	store    *fakeClientStore
	ingestor *fakeIngestor
	clock    *clockwork.FakeClock
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		store:    &fakeClientStore{clients: map[uuid.UUID]model.Client{}},
		ingestor: &fakeIngestor{},
		clock:    clockwork.NewFakeClockAt(time.Date(2023, 8, 21, 0, 5, 0, 0, time.UTC)),
	}

	logger := slog.Default()
	f.e = echo.New()
	f.e.HTTPErrorHandler = NewErrorHandler(f.clock, logger).Handle
	NewClientHandler(f.store, f.ingestor, validation.New(), logger).RegisterRoutes(f.e.Group(""))
	return f
}

func (f *handlerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func sampleClient() model.Client {
	return model.Client{
		ID:        uuid.New(),
		FirstName: "Dori",
		LastName:  "Dietrich",
		Email:     "patria@hagenes.net",
		Phone:     "(272) 301-6356",
		Gender:    model.GenderMale,
		Banned:    false,
	}
}

func TestGetClient(t *testing.T) {
	f := newHandlerFixture(t)
	c := sampleClient()
	f.store.clients[c.ID] = c

	rec := f.do(httptest.NewRequest(http.MethodGet, "/clients/"+c.ID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ClientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, c.ID, resp.ID)
	assert.Equal(t, "Dori", resp.FirstName)
	assert.Equal(t, model.GenderMale, resp.Gender)
}

func TestGetClientNotFound(t *testing.T) {
	f := newHandlerFixture(t)
	id := uuid.New()

	rec := f.do(httptest.NewRequest(http.MethodGet, "/clients/"+id.String(), nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusNotFound, env.Status)
	assert.Equal(t, apperror.CodeClientNotFound, env.ErrorCode)
	assert.Equal(t, "The Client with id ("+id.String()+") does not exist.", env.Message)
	assert.Empty(t, env.ErrorFields)
	assert.Equal(t, f.clock.Now().UnixMilli(), env.Timestamp)
}

func TestGetClientBadID(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/clients/not-a-uuid", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, apperror.CodeArgumentTypeMismatch, env.ErrorCode)
}

func TestUpdateClient(t *testing.T) {
	f := newHandlerFixture(t)
	c := sampleClient()
	f.store.clients[c.ID] = c

	body := `{"first_name":"Dora","last_name":"Dietrich","email":"patria@hagenes.net",` +
		`"phone":"(272) 301-6356","gender":"female","banned":true}`
	req := httptest.NewRequest(http.MethodPut, "/clients/"+c.ID.String(), strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ClientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Dora", resp.FirstName)
	assert.Equal(t, model.GenderFemale, resp.Gender)
	assert.True(t, resp.Banned)
	assert.Equal(t, "Dora", f.store.clients[c.ID].FirstName)
}

func TestUpdateClientValidationFailure(t *testing.T) {
	f := newHandlerFixture(t)
	c := sampleClient()
	f.store.clients[c.ID] = c

	body := `{"first_name":"  ","last_name":"Dietrich","email":"nope",` +
		`"phone":"(272) 301-6356","gender":"MALE","banned":false}`
	req := httptest.NewRequest(http.MethodPut, "/clients/"+c.ID.String(), strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := f.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, apperror.CodeBadRequest, env.ErrorCode)
	assert.Equal(t, "Argument validation failed", env.Message)
	require.Len(t, env.ErrorFields, 2)
	assert.Equal(t, "email", env.ErrorFields[0].FieldName)
	assert.Equal(t, "must be a well-formed email address", env.ErrorFields[0].FieldError)
	assert.Equal(t, "firstName", env.ErrorFields[1].FieldName)
	assert.Equal(t, "must not be blank", env.ErrorFields[1].FieldError)
	assert.Equal(t, "Dori", f.store.clients[c.ID].FirstName)
}

func TestDeleteClient(t *testing.T) {
	f := newHandlerFixture(t)
	c := sampleClient()
	f.store.clients[c.ID] = c

	rec := f.do(httptest.NewRequest(http.MethodDelete, "/clients/"+c.ID.String(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.store.clients)

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/clients/"+c.ID.String(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadClientsFile(t *testing.T) {
	f := newHandlerFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="file"; filename="clients.csv"`},
		"Content-Type":        {"text/csv"},
	})
	require.NoError(t, err)
	content := "id,first_name,last_name,email,phone,gender,banned\n"
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/clients/files", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())

	rec := f.do(req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, csv.KindClient, f.ingestor.kind)
	assert.Equal(t, "text/csv", f.ingestor.upload.ContentType)
	assert.Equal(t, int64(len(content)), f.ingestor.upload.Size)
	assert.Equal(t, content, f.ingestor.body)
}

func TestUploadMissingFilePart(t *testing.T) {
	f := newHandlerFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/clients/files", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())

	rec := f.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, apperror.CodeBadRequest, env.ErrorCode)
}

func TestUploadRejectedFileReturnsConflict(t *testing.T) {
	f := newHandlerFixture(t)
	f.ingestor.err = apperror.InvalidCsvFile()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "clients.json")
	require.NoError(t, err)
	_, err = part.Write([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/clients/files", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())

	rec := f.do(req)

	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, apperror.CodeInvalidCsvFile, env.ErrorCode)
	assert.Equal(t, apperror.InvalidCsvFileMessage, env.Message)
}

func TestGetTopClients(t *testing.T) {
	f := newHandlerFixture(t)
	first, second := sampleClient(), sampleClient()
	f.store.topClients = []model.Client{first, second}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/clients/top?number=2&cutoff=2018-01-01", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []ClientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, first.ID, resp[0].ID)
	assert.Equal(t, second.ID, resp[1].ID)

	assert.Equal(t, 2, f.store.topN)
	assert.Equal(t, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), f.store.topCutoff)
}

func TestGetTopClientsEmptyResult(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/clients/top?number=10&cutoff=2018-01-01", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetTopClientsParamErrors(t *testing.T) {
	f := newHandlerFixture(t)

	testCases := []struct {
		name string
		url  string
		code string
	}{
		{"missing number", "/clients/top?cutoff=2018-01-01", apperror.CodeBadRequest},
		{"missing cutoff", "/clients/top?number=5", apperror.CodeBadRequest},
		{"number not an integer", "/clients/top?number=five&cutoff=2018-01-01", apperror.CodeArgumentTypeMismatch},
		{"cutoff not a date", "/clients/top?number=5&cutoff=yesterday", apperror.CodeArgumentTypeMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(httptest.NewRequest(http.MethodGet, tc.url, nil))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, tc.code, env.ErrorCode)
		})
	}
}
