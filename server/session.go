package server

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/voxhire/interviewd/interview"
	"github.com/voxhire/interviewd/logging"
	"github.com/voxhire/interviewd/provider"
	"github.com/voxhire/interviewd/store"
)

// speakChunkSize is the audio payload size per websocket frame, before base64
// encoding.
const speakChunkSize = 4096

// defaultRedirectDelay is how long the client gets to show the summary before
// being nudged back home.
const defaultRedirectDelay = 10 * time.Second

// sender delivers one outbound frame. The websocket connection satisfies it;
// tests substitute an in-memory recorder.
type sender interface {
	send(ctx context.Context, v any) error
}

// recorder is what a session needs from the transcript layer.
type recorder interface {
	interview.Recorder
	Path() string
	Close()
}

// session drives one candidate's interview over a single connection. It is
// single-threaded: the connection read loop is the only caller.
type session struct {
	id     string
	userID string

	conn        sender
	interviewer *interview.Interviewer
	speech      provider.Speech
	transcriber provider.Transcriber
	repo        store.Repository
	logger      logging.Logger

	newRecorder   func(sessionID, userID, jobTitle, resumeText string) (recorder, error)
	redirectDelay time.Duration

	state *interview.State
	rec   recorder
	ended bool
}

// handle dispatches one inbound frame. It returns true when the connection
// should close.
func (s *session) handle(ctx context.Context, msg clientMessage) bool {
	switch msg.Type {
	case msgInit:
		s.init(ctx)
	case msgReady:
		s.ready(ctx)
	case msgAudio:
		s.audio(ctx, msg.Data)
	case msgText:
		s.text(ctx, msg.Data)
	case msgSkipStage:
		s.skip(ctx)
	case msgEnd:
		if s.state != nil {
			s.finish(ctx, "user_requested")
		}
		return true
	default:
		s.sendError(ctx, "unknown message type: "+msg.Type)
	}
	return false
}

func (s *session) init(ctx context.Context) {
	if s.state != nil {
		return
	}
	s.sendStatus(ctx, "loading_resume", "正在加载简历信息...")

	resume, err := s.repo.GetLatestResume(ctx, s.userID)
	if err != nil {
		s.logger.Error("resume lookup failed", "user_id", s.userID, "error", err)
		s.sendError(ctx, "初始化失败，请稍后重试")
		return
	}
	if resume == nil || strings.TrimSpace(resume.Content) == "" {
		s.sendError(ctx, "未找到简历信息，请先上传简历")
		return
	}
	jobTitle := resume.JobTitle
	if jobTitle == "" {
		jobTitle = "通用岗位"
	}

	s.sendStatus(ctx, "initializing_agent", "正在初始化 AI 面试官...")

	state, opening := s.interviewer.Initialize(ctx, s.id, s.userID, jobTitle, resume.Content)
	s.state = state

	if rec, err := s.newRecorder(s.id, s.userID, jobTitle, resume.Content); err != nil {
		s.logger.Warn("transcript unavailable", "error", err)
	} else {
		s.rec = rec
	}

	_ = s.conn.send(ctx, statusMessage{Type: "status", Data: statusData{
		Stage:        "ready",
		Message:      "准备就绪，等待开始...",
		JobName:      jobTitle,
		Stages:       allStageItems(),
		CurrentStage: string(state.Stage()),
	}})

	s.speak(ctx, textMessage{Type: "opening", Text: opening}, opening)

	// The opening needs no answer; move straight into the first real stage.
	if next, ok := s.interviewer.ForceNextStage(state, s.rec); ok {
		_ = s.conn.send(ctx, stageChangeMessage{
			Type: "stage_change",
			From: string(interview.StageOpening),
			To:   string(next),
		})
	}
	s.askNext(ctx)
}

// ready is kept for clients that still send it after the opening; the session
// has normally advanced past the opening stage by then.
func (s *session) ready(ctx context.Context) {
	if s.state == nil || s.state.Stage() != interview.StageOpening {
		return
	}
	if next, ok := s.interviewer.ForceNextStage(s.state, s.rec); ok {
		_ = s.conn.send(ctx, stageChangeMessage{
			Type: "stage_change",
			From: string(interview.StageOpening),
			To:   string(next),
		})
		s.askNext(ctx)
	}
}

func (s *session) askNext(ctx context.Context) {
	result := s.interviewer.NextQuestion(ctx, s.state, s.rec)
	if result.ThinkingMessage != "" {
		s.speak(ctx, textMessage{Type: "thinking", Text: result.ThinkingMessage}, result.ThinkingMessage)
	}
	s.speak(ctx, questionMessage{
		Type:          "question",
		Text:          result.Question,
		Stage:         string(result.Stage),
		StageInfo:     currentStageInfo(s.state),
		QuestionIndex: s.state.QuestionCount() + 1,
	}, result.Question)
}

func (s *session) audio(ctx context.Context, data string) {
	if s.state == nil {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil || len(raw) == 0 {
		s.sendError(ctx, "音频数据无效")
		return
	}
	text, err := s.transcriber.Transcribe(ctx, raw)
	if err != nil {
		s.logger.Warn("transcription failed", "error", err)
		s.sendError(ctx, "语音识别失败，请重试")
		return
	}
	_ = s.conn.send(ctx, transcriptionMessage{Type: "transcription", Text: text, IsFinal: true})
	if strings.TrimSpace(text) != "" {
		s.answer(ctx, text)
	}
}

func (s *session) text(ctx context.Context, data string) {
	if s.state == nil || strings.TrimSpace(data) == "" {
		return
	}
	s.answer(ctx, data)
}

func (s *session) answer(ctx context.Context, answer string) {
	from := s.state.Stage()
	s.sendStatus(ctx, "analyzing", "正在分析回答...")

	analysis := s.interviewer.ProcessAnswer(ctx, s.state, answer, s.rec)
	_ = s.conn.send(ctx, analysisMessage{
		Type:     "analysis",
		Score:    analysis.Score,
		Feedback: analysis.Feedback,
		Action:   string(analysis.Action),
	})

	switch analysis.Action {
	case interview.ActionFollowUp:
		s.speak(ctx, questionMessage{
			Type:          "question",
			Text:          analysis.FollowUpQuestion,
			Stage:         string(s.state.Stage()),
			StageInfo:     currentStageInfo(s.state),
			QuestionIndex: s.state.QuestionCount() + 1,
		}, analysis.FollowUpQuestion)
	case interview.ActionNextStage:
		_ = s.conn.send(ctx, stageChangeMessage{
			Type: "stage_change",
			From: string(from),
			To:   string(analysis.NextStage),
		})
		filler := interview.FillerMessage(interview.FillerTransitioning)
		s.speak(ctx, textMessage{Type: "thinking", Text: filler}, filler)
		s.askNext(ctx)
	case interview.ActionEndInterview:
		s.finish(ctx, "completed")
	default:
		s.askNext(ctx)
	}
}

func (s *session) skip(ctx context.Context) {
	if s.state == nil {
		return
	}
	from := s.state.Stage()
	next, ok := s.interviewer.ForceNextStage(s.state, s.rec)
	if !ok {
		s.finish(ctx, "completed")
		return
	}
	_ = s.conn.send(ctx, stageChangeMessage{Type: "stage_change", From: string(from), To: string(next)})
	if next == interview.StageClosing {
		s.finish(ctx, "completed")
		return
	}
	filler := interview.FillerMessage(interview.FillerTransitioning)
	s.speak(ctx, textMessage{Type: "thinking", Text: filler}, filler)
	s.askNext(ctx)
}

func (s *session) finish(ctx context.Context, reason string) {
	if s.state == nil || s.ended {
		return
	}
	s.ended = true

	closing, summary := s.interviewer.EndInterview(ctx, s.state, s.rec)
	s.speak(ctx, textMessage{Type: "closing", Text: closing}, closing)

	s.persist(ctx, reason)

	_ = s.conn.send(ctx, endMessage{Type: "end", Reason: reason, Summary: summary})
	if s.rec != nil {
		s.rec.Close()
	}
	s.scheduleRedirect(ctx)
}

// scheduleRedirect nudges the client back home once it has had time to show
// the summary. A non-positive delay sends the frame inline, used by tests.
func (s *session) scheduleRedirect(ctx context.Context) {
	if s.redirectDelay <= 0 {
		_ = s.conn.send(ctx, redirectMessage{Type: "redirect", Target: "home"})
		return
	}
	go func() {
		select {
		case <-ctx.Done():
		case <-time.After(s.redirectDelay):
			_ = s.conn.send(ctx, redirectMessage{Type: "redirect", Target: "home"})
		}
	}()
}

// abort persists whatever happened when the connection drops before a clean
// end. The caller's context is usually cancelled by then, so a fresh one is
// used for the write.
func (s *session) abort() {
	if s.state == nil || s.ended {
		return
	}
	s.ended = true
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.state.QuestionCount() > 0 {
		s.persist(ctx, "disconnected")
	}
	if s.rec != nil {
		s.rec.Close()
	}
}

func (s *session) persist(ctx context.Context, reason string) {
	snap := s.state.Snapshot()
	stageScores := make(map[string]float64, len(snap.StageScores))
	for stage, score := range snap.StageScores {
		stageScores[string(stage)] = score
	}
	path := ""
	if s.rec != nil {
		path = s.rec.Path()
	}
	record := &store.InterviewRecord{
		SessionID:      s.id,
		UserID:         s.userID,
		JobTitle:       snap.JobTitle,
		TotalScore:     snap.TotalScore,
		QuestionCount:  snap.QuestionCount,
		DurationSec:    int(time.Since(snap.StartTime).Seconds()),
		EndReason:      reason,
		StageScores:    stageScores,
		TranscriptPath: path,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.SaveInterviewRecord(ctx, record); err != nil {
		s.logger.Error("save interview record failed", "error", err)
	}
}

// speak sends the head frame, gathers the synthesized audio stream into one
// buffer, then sends the full subtitle followed by ordered base64 audio
// chunks. The subtitle goes out only after synthesis finishes so it never
// runs ahead of the audio.
func (s *session) speak(ctx context.Context, head any, text string) {
	if err := s.conn.send(ctx, head); err != nil {
		return
	}

	stream, errs := s.speech.SynthesizeStream(ctx, text)
	var audio []byte
	for chunk := range stream {
		audio = append(audio, chunk...)
	}
	if err := <-errs; err != nil {
		s.logger.Warn("speech synthesis failed", "error", err)
		return
	}

	if err := s.conn.send(ctx, subtitleMessage{Type: "subtitle", Text: text, IsFinal: true}); err != nil {
		return
	}

	index := 0
	for off := 0; off < len(audio); off += speakChunkSize {
		end := off + speakChunkSize
		if end > len(audio) {
			end = len(audio)
		}
		msg := audioChunkMessage{
			Type:       "audio_chunk",
			Data:       base64.StdEncoding.EncodeToString(audio[off:end]),
			Format:     "wav",
			ChunkIndex: index,
		}
		if err := s.conn.send(ctx, msg); err != nil {
			return
		}
		index++
	}
	_ = s.conn.send(ctx, audioChunkMessage{Type: "audio_chunk", Format: "wav", ChunkIndex: index, IsFinal: true})
}

func (s *session) sendStatus(ctx context.Context, stage, message string) {
	_ = s.conn.send(ctx, statusMessage{Type: "status", Data: statusData{Stage: stage, Message: message}})
}

func (s *session) sendError(ctx context.Context, message string) {
	_ = s.conn.send(ctx, errorMessage{Type: "error", Message: message})
}
