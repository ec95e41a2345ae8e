package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/teas/apps/api/echo"
	"github.com/trezcool/teas/core/employee"
	"github.com/trezcool/teas/core/user"
	"github.com/trezcool/teas/testutil"
)

const pwd = "S3cure!Passw0rd"

func Test_userApi_create(t *testing.T) {
	db.Truncate()
	testutil.CreateUser(t, usrRepo, "Taken", "User", "taken", "taken@test.cd", pwd, false, true)

	tests := []httpTest{
		{
			name: "Required fields", method: http.MethodPost, path: "/api/create-user", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "Invalid username & email", method: http.MethodPost, path: "/api/create-user",
			body:     []byte(`{"username": "no spaces", "email": "lol", "password": "` + pwd + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "enter a valid username: only letters, numbers and @/./+/-/_ characters are allowed",
				"email":    "email must be a valid email address",
			}),
		},
		{
			name: "Password too short", method: http.MethodPost, path: "/api/create-user",
			body:     []byte(`{"username": "jdoe", "password": "Sh0rt!"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
		{
			name: "Password entirely numeric", method: http.MethodPost, path: "/api/create-user",
			body:     []byte(`{"username": "jdoe", "password": "1234567890"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password cannot be entirely numeric"}),
		},
		{
			name: "Password similar to username", method: http.MethodPost, path: "/api/create-user",
			body:     []byte(`{"username": "johndoe99", "password": "johndoe99!"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password is too similar to the user's attributes"}),
		},
		{
			name: "Username taken", method: http.MethodPost, path: "/api/create-user",
			body:     []byte(`{"username": " TAKEN ", "password": "` + pwd + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "Username already exists"}),
		},
		{
			name: "Email taken", method: http.MethodPost, path: "/api/create-user",
			body:     []byte(`{"username": "other", "email": "Taken@Test.cd", "password": "` + pwd + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
	}
	runHTTPTests(t, tests)

	t.Run("Success", func(t *testing.T) {
		body := []byte(`{"username": "JDoe", "first_name": "John", "last_name": "Doe", "email": "jdoe@test.cd", "password": "` + pwd + `"}`)
		rec := serve(httpTest{method: http.MethodPost, path: "/api/create-user/", body: body})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp echoapi.CreateUserResponse
		decode(t, rec, &resp)
		assert.Equal(t, "jdoe", resp.Username)
		assert.Equal(t, "User created successfully", resp.Message)

		usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: resp.UserID})
		require.NoError(t, err)
		assert.Equal(t, "John Doe", usr.FullName())
		assert.True(t, usr.IsActive)
		assert.False(t, usr.IsAdmin)
		assert.NoError(t, usr.CheckPassword(pwd))
	})
}

func Test_userApi_query(t *testing.T) {
	db.Truncate()
	now := time.Now()
	bob := testutil.CreateUser(t, usrRepo, "Bob", "Smith", "bob", "bob@test.cd", pwd, false, true, now)
	alice := testutil.CreateUser(t, usrRepo, "Alice", "Jones", "alice", "alice@test.cd", pwd, true, true, now.Add(time.Hour))
	carl := testutil.CreateUser(t, usrRepo, "Carl", "Smithers", "carl", "", pwd, false, false, now.Add(2*time.Hour))
	token := getToken(t, bob)

	tests := []httpTest{
		{name: "Auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Invalid token", path: "/api/users", token: "lol", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "Deactivated user", path: "/api/users", token: getToken(t, carl), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "Get all", path: "/api/users", token: token, wantData: marchallList(t, alice, bob, carl)},
		{name: "search", path: "/api/users?search=SMITH", token: token, wantData: marchallList(t, bob, carl)},
		{name: "search (unknown)", path: "/api/users?search=lol", token: token, wantData: marchallList(t)},
		{name: "is_active=false", path: "/api/users?is_active=false", token: token, wantData: marchallList(t, carl)},
		{name: "is_admin=true", path: "/api/users?is_admin=true", token: token, wantData: marchallList(t, alice)},
		{name: "ordering", path: "/api/users?ordering=-created_at", token: token, wantData: marchallList(t, carl, alice, bob)},
		{name: "ordering (unknown field)", path: "/api/users?ordering=password_hash", token: token, wantData: marchallList(t, alice, bob, carl)},
	}
	runHTTPTests(t, tests)

	t.Run("No password in output", func(t *testing.T) {
		rec := serve(httpTest{path: "/api/users", token: token})
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func Test_userApi_login(t *testing.T) {
	db.Truncate()
	usr := testutil.CreateUser(t, usrRepo, "John", "Doe", "jdoe", "jdoe@test.cd", pwd, false, true)
	testutil.CreateUser(t, usrRepo, "N", "Dog", "ndog", "ndog@test.cd", pwd, false, false)

	invalid := marchallObj(t, httpErr{Error: "Invalid credentials"})
	tests := []httpTest{
		{
			name: "Required fields", method: http.MethodPost, path: "/api/auth/login", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "Unknown user", method: http.MethodPost, path: "/api/auth/login",
			body: []byte(`{"username": "lol", "password": "` + pwd + `"}`), wantCode: http.StatusBadRequest, wantData: invalid,
		},
		{
			name: "Wrong password", method: http.MethodPost, path: "/api/auth/login",
			body: []byte(`{"username": "jdoe", "password": "wrong-password"}`), wantCode: http.StatusBadRequest, wantData: invalid,
		},
		{
			name: "Deactivated user", method: http.MethodPost, path: "/api/auth/login",
			body: []byte(`{"username": "ndog", "password": "` + pwd + `"}`), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	runHTTPTests(t, tests)

	for _, uname := range []string{"JDoe", "jdoe@test.cd"} {
		t.Run("Success with "+uname, func(t *testing.T) {
			rec := serve(httpTest{
				method: http.MethodPost, path: "/api/auth/login",
				body: []byte(`{"username": "` + uname + `", "password": "` + pwd + `"}`),
			})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp echoapi.TokenResponse
			decode(t, rec, &resp)
			require.NotEmpty(t, resp.Token)

			// the token authenticates its user
			rec = serve(httpTest{path: "/api/users", token: resp.Token})
			assert.Equal(t, http.StatusOK, rec.Code)

			stored, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.NotNil(t, stored.LastLogin)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	db.Truncate()
	usr := testutil.CreateUser(t, usrRepo, "John", "Doe", "jdoe", "jdoe@test.cd", pwd, false, true)
	expired := auth.GetUserClaims(usr, time.Now().Add(-5*time.Hour).Unix())
	expiredToken, err := auth.GenerateToken(expired)
	require.NoError(t, err)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/api/auth/token-refresh",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Refresh expired", method: http.MethodPost, path: "/api/auth/token-refresh", token: expiredToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
	}
	runHTTPTests(t, tests)

	t.Run("Success", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodPost, path: "/api/auth/token-refresh", token: getToken(t, usr)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp echoapi.TokenResponse
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
	})
}

func Test_userApi_register(t *testing.T) {
	db.Truncate()
	mailSvc.Reset()
	taken := testutil.CreateUser(t, usrRepo, "Taken", "User", "taken", "taken@test.cd", pwd, false, true)
	testutil.CreateEmployee(t, empRepo, taken, "EMP-001", "")

	tests := []httpTest{
		{
			name: "Required fields", method: http.MethodPost, path: "/api/auth/register", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "Employee ID required", method: http.MethodPost, path: "/api/auth/register",
			body:     []byte(`{"username": "jdoe", "password": "` + pwd + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"employee_id": "this field is required"}),
		},
		{
			name: "Employee ID too long", method: http.MethodPost, path: "/api/auth/register",
			body:     []byte(`{"username": "jdoe", "password": "` + pwd + `", "employee_id": "EMP-0123456789-0123456789"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"employee_id": "employee_id must be a maximum of 20 characters in length"}),
		},
		{
			name: "Username taken", method: http.MethodPost, path: "/api/auth/register",
			body:     []byte(`{"username": "taken", "password": "` + pwd + `", "employee_id": "EMP-002"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "Username already exists"}),
		},
		{
			name: "Employee ID taken", method: http.MethodPost, path: "/api/auth/register",
			body:     []byte(`{"username": "jdoe", "password": "` + pwd + `", "employee_id": "EMP-001"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"employee_id": employee.ErrEmployeeIDExists.Error()}),
		},
	}
	runHTTPTests(t, tests)

	t.Run("Success", func(t *testing.T) {
		body := []byte(`{"username": "jdoe", "first_name": "John", "last_name": "Doe", "email": "jdoe@test.cd",
			"password": "` + pwd + `", "employee_id": "EMP-002"}`)
		rec := serve(httpTest{method: http.MethodPost, path: "/api/auth/register", body: body})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp echoapi.RegisterResponse
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "EMP-002", resp.Employee.EmployeeID)
		assert.Equal(t, "jdoe", resp.Employee.User.Username)
		assert.Equal(t, "John Doe (EMP-002)", resp.Employee.String())

		// logged in: the token works on self-service routes
		rec = serve(httpTest{method: http.MethodPost, path: "/api/me/check-in", token: resp.Token})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		sent := mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "jdoe@test.cd", sent[0].To[0].Address)
		assert.Equal(t, "welcome", sent[0].TemplateName)
	})
}
