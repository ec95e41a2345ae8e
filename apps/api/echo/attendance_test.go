package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/teas/apps/api/echo"
	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/attendance"
	"github.com/trezcool/teas/testutil"
)

func Test_attendanceApi_mark(t *testing.T) {
	db.Truncate()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "", "admin", "admin@test.cd", pwd, true, true)
	bobUsr := testutil.CreateUser(t, usrRepo, "Bob", "Smith", "bob", "bob@test.cd", pwd, false, true)
	aliceUsr := testutil.CreateUser(t, usrRepo, "Alice", "Jones", "alice", "alice@test.cd", pwd, false, true)
	nobody := testutil.CreateUser(t, usrRepo, "No", "Profile", "nobody", "", pwd, false, true)
	bob := testutil.CreateEmployee(t, empRepo, bobUsr, "EMP-001", "IT")
	alice := testutil.CreateEmployee(t, empRepo, aliceUsr, "EMP-002", "HR")

	adminToken := getToken(t, admin)
	demoted := testutil.CreateUser(t, usrRepo, "Demoted", "", "demoted", "", pwd, true, true)
	demotedToken := getToken(t, demoted)
	demoted.IsAdmin = false
	_, err := usrRepo.UpdateUser(context.Background(), demoted)
	require.NoError(t, err)
	unknownID := uuid.New().String()
	body := func(empID, extra string) []byte {
		return []byte(`{"employee": "` + empID + `", "date": "2024-01-15"` + extra + `}`)
	}

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/api/mark-attendance", body: body(bob.ID, ""),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Required fields", method: http.MethodPost, path: "/api/mark-attendance", body: []byte(`{}`), token: adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"employee": "this field is required", "date": "this field is required"}),
		},
		{
			name: "Invalid date", method: http.MethodPost, path: "/api/mark-attendance", token: adminToken,
			body:     []byte(`{"employee": "` + bob.ID + `", "date": "15/01/2024"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": core.ErrInvalidDate.Error()}),
		},
		{
			name: "Invalid check-in time", method: http.MethodPost, path: "/api/mark-attendance", token: adminToken,
			body:     body(bob.ID, `, "check_in_time": "9am"`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"check_in_time": core.ErrInvalidTimeOfDay.Error()}),
		},
		{
			name: "Invalid status", method: http.MethodPost, path: "/api/mark-attendance", token: adminToken,
			body:     body(bob.ID, `, "status": "sick"`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "status must be one of [present absent late leave]"}),
		},
		{
			name: "Invalid coordinates", method: http.MethodPost, path: "/api/mark-attendance", token: adminToken,
			body:     body(bob.ID, `, "latitude": 91, "longitude": -181`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"latitude":  "latitude must be 90 or less",
				"longitude": "longitude must be -180 or greater",
			}),
		},
		{
			name: "Unknown employee", method: http.MethodPost, path: "/api/mark-attendance", token: adminToken,
			body:     body(unknownID, ""),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"employee": `Invalid pk "` + unknownID + `" - object does not exist.`}),
		},
		{
			name: "Other employee's record", method: http.MethodPost, path: "/api/mark-attendance", token: getToken(t, aliceUsr),
			body: body(bob.ID, ""), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Demoted admin", method: http.MethodPost, path: "/api/mark-attendance", token: demotedToken,
			body: body(bob.ID, ""), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "User without profile", method: http.MethodPost, path: "/api/mark-attendance", token: getToken(t, nobody),
			body: body(bob.ID, ""), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	runHTTPTests(t, tests)

	mark := func(t *testing.T, token string, data []byte, wantCode int) echoapi.MarkAttendanceResponse {
		rec := serve(httpTest{method: http.MethodPost, path: "/api/mark-attendance", token: token, body: data})
		require.Equal(t, wantCode, rec.Code, rec.Body.String())
		var resp echoapi.MarkAttendanceResponse
		decode(t, rec, &resp)
		assert.Equal(t, "Attendance marked successfully", resp.Message)
		return resp
	}
	date := core.NewDate(2024, 1, 15)

	t.Run("Create then update", func(t *testing.T) {
		created := mark(t, adminToken, body(bob.ID, `, "check_in_time": "08:30", "latitude": 5.1234567, "longitude": -4.0`), http.StatusCreated)
		require.NotEmpty(t, created.AttendanceID)

		att, err := attRepo.GetAttendance(context.Background(), bob.ID, date)
		require.NoError(t, err)
		assert.Equal(t, created.AttendanceID, att.ID)
		assert.Equal(t, attendance.StatusPresent, att.Status)
		assert.Equal(t, "08:30:00", att.CheckInTime.String())
		assert.Equal(t, 5.123457, *att.Latitude)
		assert.Equal(t, "Bob Smith", att.EmployeeName)

		// only the provided fields change
		updated := mark(t, adminToken, body(bob.ID, `, "status": "late"`), http.StatusOK)
		assert.Equal(t, created.AttendanceID, updated.AttendanceID)

		att2, err := attRepo.GetAttendance(context.Background(), bob.ID, date)
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusLate, att2.Status)
		assert.Equal(t, att.CheckInTime, att2.CheckInTime)
		assert.Equal(t, att.Latitude, att2.Latitude)
		assert.Equal(t, att.CreatedAt, att2.CreatedAt)
		assert.False(t, att2.UpdatedAt.Before(att.UpdatedAt))

		// null clears, absent keeps
		mark(t, adminToken, body(bob.ID, `, "latitude": null, "check_in_time": null, "status": null`), http.StatusOK)
		att3, err := attRepo.GetAttendance(context.Background(), bob.ID, date)
		require.NoError(t, err)
		assert.Nil(t, att3.Latitude)
		assert.Nil(t, att3.CheckInTime)
		assert.Equal(t, att.Longitude, att3.Longitude)
		assert.Equal(t, attendance.StatusLate, att3.Status)

		atts, err := attRepo.QueryAttendances(context.Background(), attendance.QueryFilter{EmployeeID: bob.ID}, nil)
		require.NoError(t, err)
		assert.Len(t, atts, 1)
	})

	t.Run("Own record", func(t *testing.T) {
		mark(t, getToken(t, aliceUsr), body(alice.ID, `, "status": "leave"`), http.StatusCreated)
	})
}

func Test_attendanceApi_query(t *testing.T) {
	db.Truncate()
	bobUsr := testutil.CreateUser(t, usrRepo, "Bob", "Smith", "bob", "bob@test.cd", pwd, false, true)
	aliceUsr := testutil.CreateUser(t, usrRepo, "Alice", "Jones", "alice", "alice@test.cd", pwd, false, true)
	bob := testutil.CreateEmployee(t, empRepo, bobUsr, "EMP-001", "IT")
	alice := testutil.CreateEmployee(t, empRepo, aliceUsr, "EMP-002", "HR")

	d1, d2, d3 := core.NewDate(2024, 1, 15), core.NewDate(2024, 1, 16), core.NewDate(2024, 1, 17)
	bob1 := testutil.CreateAttendance(t, attRepo, bob, d1, attendance.StatusPresent, testutil.Clock(8, 0, 0))
	alice1 := testutil.CreateAttendance(t, attRepo, alice, d1, attendance.StatusLate, testutil.Clock(9, 15, 0))
	bob2 := testutil.CreateAttendance(t, attRepo, bob, d2, attendance.StatusAbsent, nil)
	alice3 := testutil.CreateAttendance(t, attRepo, alice, d3, attendance.StatusLeave, nil)

	token := getToken(t, bobUsr)
	tests := []httpTest{
		{name: "Auth required", path: "/api/get-attendances", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Invalid date", path: "/api/get-attendances?date=15-01-2024", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid date format. Use YYYY-MM-DD"}),
		},
		{
			name: "Invalid date_from", path: "/api/get-attendances?date_from=lol", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid date format. Use YYYY-MM-DD"}),
		},
		{
			name: "Date with trailing text", path: "/api/get-attendances?date=2024-01-15%20garbage", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid date format. Use YYYY-MM-DD"}),
		},
		{
			name: "Date with time", path: "/api/get-attendances?date=2024-01-15T99:99", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid date format. Use YYYY-MM-DD"}),
		},
		{name: "Get all", path: "/api/get-attendances?ordering=-date,-check_in_time", token: token, wantData: marchallList(t, alice3, bob2, alice1, bob1)},
		{name: "date", path: "/api/get-attendances?date=2024-01-15&ordering=check_in_time", token: token, wantData: marchallList(t, bob1, alice1)},
		{name: "date (unpadded)", path: "/api/get-attendances?date=2024-1-15&ordering=check_in_time", token: token, wantData: marchallList(t, bob1, alice1)},
		{name: "date (none)", path: "/api/get-attendances?date=2023-01-15", token: token, wantData: marchallList(t)},
		{name: "date range", path: "/api/get-attendances?date_from=2024-01-16&date_to=2024-01-17", token: token, wantData: marchallList(t, alice3, bob2)},
		{name: "employee", path: "/api/get-attendances?employee=" + bob.ID, token: token, wantData: marchallList(t, bob2, bob1)},
		{name: "employee (unknown)", path: "/api/get-attendances?employee=lol", token: token, wantData: marchallList(t)},
		{name: "status", path: "/api/get-attendances?status=LATE", token: token, wantData: marchallList(t, alice1)},
		{name: "ordering", path: "/api/get-attendances?ordering=date,status", token: token, wantData: marchallList(t, alice1, bob1, bob2, alice3)},
	}
	runHTTPTests(t, tests)

	t.Run("Employee name", func(t *testing.T) {
		rec := serve(httpTest{path: "/api/get-attendances?date=2024-01-17", token: token})
		var atts []map[string]interface{}
		decode(t, rec, &atts)
		require.Len(t, atts, 1)
		assert.Equal(t, "Alice Jones", atts[0]["employee_name"])
		assert.Equal(t, alice.ID, atts[0]["employee"])
		assert.Nil(t, atts[0]["check_in_time"])
	})
}
