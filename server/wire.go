package server

import (
	"context"
	"encoding/json"

	"github.com/coder/websocket"

	"github.com/voxhire/interviewd/interview"
)

// Frames exchanged with the candidate's browser. Inbound frames carry a type
// plus an optional string payload; outbound frames use one struct per type so
// the JSON shape stays fixed.

type clientMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

const (
	msgInit      = "init"
	msgReady     = "ready"
	msgAudio     = "audio"
	msgText      = "text"
	msgSkipStage = "skip_stage"
	msgEnd       = "end"
)

type statusMessage struct {
	Type string     `json:"type"`
	Data statusData `json:"data"`
}

type statusData struct {
	Stage        string      `json:"stage"`
	Message      string      `json:"message"`
	JobName      string      `json:"job_name,omitempty"`
	Stages       []stageItem `json:"interview_stages,omitempty"`
	CurrentStage string      `json:"current_stage,omitempty"`
}

type stageItem struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// textMessage covers the plain spoken frames: opening, thinking and closing.
type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type questionMessage struct {
	Type          string    `json:"type"`
	Text          string    `json:"text"`
	Stage         string    `json:"stage"`
	StageInfo     stageInfo `json:"stage_info"`
	QuestionIndex int       `json:"question_index"`
}

type stageInfo struct {
	Key           string `json:"key"`
	Name          string `json:"name"`
	Index         int    `json:"index"`
	Total         int    `json:"total"`
	QuestionCount int    `json:"question_count"`
	MinQuestions  int    `json:"min_questions"`
	MaxQuestions  int    `json:"max_questions"`
}

type subtitleMessage struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

type audioChunkMessage struct {
	Type       string `json:"type"`
	Data       string `json:"data"`
	Format     string `json:"format"`
	ChunkIndex int    `json:"chunk_index"`
	IsFinal    bool   `json:"is_final"`
}

type transcriptionMessage struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

type analysisMessage struct {
	Type     string  `json:"type"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
	Action   string  `json:"action"`
}

type stageChangeMessage struct {
	Type string `json:"type"`
	From string `json:"from"`
	To   string `json:"to"`
}

type endMessage struct {
	Type    string            `json:"type"`
	Reason  string            `json:"reason"`
	Summary interview.Summary `json:"summary"`
}

type redirectMessage struct {
	Type   string `json:"type"`
	Target string `json:"target"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func allStageItems() []stageItem {
	order := interview.StageOrder()
	items := make([]stageItem, 0, len(order))
	for _, stage := range order {
		cfg := stage.Config()
		items = append(items, stageItem{Key: string(stage), Name: cfg.Name, Description: cfg.Description})
	}
	return items
}

func currentStageInfo(state *interview.State) stageInfo {
	stage := state.Stage()
	cfg := stage.Config()
	return stageInfo{
		Key:           string(stage),
		Name:          cfg.Name,
		Index:         stage.Index(),
		Total:         len(interview.StageOrder()),
		QuestionCount: state.StageQuestions(),
		MinQuestions:  cfg.MinQuestions,
		MaxQuestions:  cfg.MaxQuestions,
	}
}

// wsSender writes outbound frames to the websocket connection.
type wsSender struct {
	conn *websocket.Conn
}

func (s *wsSender) send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.Write(ctx, websocket.MessageText, data)
}
