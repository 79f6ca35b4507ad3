package queue

import (
	"encoding/json"
	"fmt"
)

// Job is one pending confirmation email. Attempt counts delivery tries that
// have already happened; a freshly enqueued job carries Attempt 0.
type Job struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	PatientName string `json:"patientName"`
	Message     string `json:"message"`
	Attempt     int    `json:"attempt"`
}

func (j Job) encode() ([]byte, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("encode job %s: %w", j.ID, err)
	}
	return b, nil
}

func decodeJob(payload []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(payload, &j); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return j, nil
}
