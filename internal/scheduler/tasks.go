package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskNurtureSweep flags leads that sat still in the early funnel.
const TaskNurtureSweep = "leads.nurture.sweep"

// TaskAnalysisSweep finds leads with stale analyses and fans them out.
const TaskAnalysisSweep = "leads.analysis.sweep"

// TaskAnalyzeLead re-scores a single lead.
const TaskAnalyzeLead = "leads.analyze"

type AnalyzeLeadPayload struct {
	LeadID string `json:"leadId"`
}

func NewNurtureSweepTask() *asynq.Task {
	return asynq.NewTask(TaskNurtureSweep, nil)
}

func NewAnalysisSweepTask() *asynq.Task {
	return asynq.NewTask(TaskAnalysisSweep, nil)
}

func NewAnalyzeLeadTask(payload AnalyzeLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyzeLead, data), nil
}

func ParseAnalyzeLeadPayload(task *asynq.Task) (AnalyzeLeadPayload, error) {
	var payload AnalyzeLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AnalyzeLeadPayload{}, err
	}
	return payload, nil
}
