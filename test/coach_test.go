package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Alazca/official-coach/internal/coach/progress"
	"github.com/Alazca/official-coach/internal/coach/recommend"
	"github.com/Alazca/official-coach/internal/coach/targets"
	"github.com/Alazca/official-coach/internal/coach/uservector"
)

func (s *IntegrationTestSuite) httpGet(path string) (int, []byte) {
	resp, err := http.Get(serverEndpoint + path)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, body
}

func (s *IntegrationTestSuite) httpPost(path string, payload any) (int, []byte) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequest("POST", serverEndpoint+path, reqBody)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, body
}

func (s *IntegrationTestSuite) httpPut(path string, payload any) (int, []byte) {
	raw, err := json.Marshal(payload)
	s.Require().NoError(err)
	req, err := http.NewRequest("PUT", serverEndpoint+path, bytes.NewReader(raw))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, body
}

func (s *IntegrationTestSuite) buildVector(userID int) uservector.UserVector {
	status, body := s.httpPost(fmt.Sprintf("/vector/%d/build", userID), nil)
	s.Require().Equal(http.StatusCreated, status, string(body))
	var uv uservector.UserVector
	s.Require().NoError(json.Unmarshal(body, &uv))
	return uv
}

func (s *IntegrationTestSuite) TestVectorLifecycle() {
	userID := s.createUser("vector-user", 82.5)
	s.seedTrainingWeek(userID)

	uv := s.buildVector(userID)
	s.Equal(userID, uv.UserID)
	s.Equal("default", uv.Profile)
	s.Equal(9, uv.Vector.Len())
	s.Greater(uv.FinalScalar, 0.0)

	status, body := s.httpGet(fmt.Sprintf("/vector/%d", userID))
	s.Require().Equal(http.StatusOK, status, string(body))
	var fetched uservector.UserVector
	s.Require().NoError(json.Unmarshal(body, &fetched))
	s.Equal(uv.Vector.Values, fetched.Vector.Values)

	status, body = s.httpPost(fmt.Sprintf("/vector/%d/snapshot", userID), nil)
	s.Require().Equal(http.StatusCreated, status, string(body))
	var snapshot uservector.Snapshot
	s.Require().NoError(json.Unmarshal(body, &snapshot))
	s.Equal(userID, snapshot.UserID)

	// a single snapshot is not enough for a trend
	status, body = s.httpGet(fmt.Sprintf("/vector/%d/trends", userID))
	s.Require().Equal(http.StatusOK, status, string(body))
	var report uservector.TrendReport
	s.Require().NoError(json.Unmarshal(body, &report))
	s.False(report.SufficientData)
}

func (s *IntegrationTestSuite) TestGoalLifecycle() {
	userID := s.createUser("goal-user", 78)
	s.seedTrainingWeek(userID)
	s.buildVector(userID)

	targetDate := time.Now().AddDate(0, 0, 90).Format(time.DateOnly)
	status, body := s.httpPost(fmt.Sprintf("/goals/%d/initialize", userID), map[string]any{
		"goal_type":   "Strength",
		"target_date": targetDate,
	})
	s.Require().Equal(http.StatusCreated, status, string(body))
	var goal targets.Target
	s.Require().NoError(json.Unmarshal(body, &goal))
	s.Equal(targets.GoalStrength, goal.GoalType)
	s.Equal(targets.StatusActive, goal.Status)
	s.Len(goal.Milestones, 3)

	status, body = s.httpGet("/goals/target/" + goal.ID.String())
	s.Require().Equal(http.StatusOK, status, string(body))

	status, body = s.httpGet(fmt.Sprintf("/progress/%d/%s", userID, goal.ID))
	s.Require().Equal(http.StatusOK, status, string(body))
	var progressReport progress.Report
	s.Require().NoError(json.Unmarshal(body, &progressReport))
	s.Equal(goal.ID, progressReport.TargetID)
	s.InDelta(90, progressReport.TotalDays, 1)

	status, body = s.httpGet("/progress/milestone/" + goal.ID.String())
	s.Require().Equal(http.StatusOK, status, string(body))

	newDescription := "lift heavier things"
	status, body = s.httpPut("/goals/target/"+goal.ID.String(), map[string]any{
		"description": newDescription,
	})
	s.Require().Equal(http.StatusOK, status, string(body))
	var updated targets.Target
	s.Require().NoError(json.Unmarshal(body, &updated))
	s.Equal(newDescription, updated.Description)

	// goal date is in the future, nothing to archive yet
	status, body = s.httpPost(fmt.Sprintf("/goals/%d/archive", userID), nil)
	s.Require().Equal(http.StatusOK, status, string(body))
	s.Contains(string(body), `"archived":0`)
}

func (s *IntegrationTestSuite) TestRecommendations() {
	userID := s.createUser("rec-user", 90)
	s.seedTrainingWeek(userID)
	s.buildVector(userID)

	status, body := s.httpGet(fmt.Sprintf("/recommendations/%d", userID))
	s.Require().Equal(http.StatusOK, status, string(body))
	var recommendations []recommend.Recommendation
	s.Require().NoError(json.Unmarshal(body, &recommendations))
	s.Require().Len(recommendations, 3)

	status, body = s.httpPost(
		fmt.Sprintf("/recommendations/%d/goal/%s", userID, recommendations[0].ID),
		map[string]any{"duration_days": 30},
	)
	s.Require().Equal(http.StatusCreated, status, string(body))
	var goal targets.Target
	s.Require().NoError(json.Unmarshal(body, &goal))
	s.Equal(recommendations[0].GoalType, goal.GoalType)
	s.Equal(recommendations[0].Title, goal.Description)
}
