// Package transcript persists interview dialogue to a per-session markdown
// file. Writes are queued onto a background goroutine so the conversation
// loop never blocks on disk; reads drain the queue first so callers always
// see a consistent file.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/voxhire/interviewd/logging"
)

// Writer records one session's dialogue. All Append methods are asynchronous
// and safe for concurrent use; Close drains pending writes.
type Writer struct {
	sessionID string
	userID    string
	jobTitle  string
	path      string
	logger    logging.Logger

	queue chan writeOp

	closeOnce sync.Once
	done      chan struct{}
}

type writeOp struct {
	content string
	barrier chan struct{}
}

// Option configures a Writer.
type Option func(*options)

type options struct {
	logger    logging.Logger
	queueSize int
	now       func() time.Time
}

// WithLogger sets the writer logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithQueueSize bounds the pending write queue.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates the transcript file under dir, writes the header and starts the
// background writer. The resume text is truncated to 2000 runes in the header.
func New(dir, sessionID, userID, jobTitle, resumeText string, opts ...Option) (*Writer, error) {
	o := options{logger: logging.NoOpLogger{}, queueSize: 256, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("transcript: create dir: %w", err)
	}
	filename := fmt.Sprintf("%s_%s_context.md", userID, o.now().Format("20060102_150405"))
	path := filepath.Join(dir, filename)

	w := &Writer{
		sessionID: sessionID,
		userID:    userID,
		jobTitle:  jobTitle,
		path:      path,
		logger:    o.logger,
		queue:     make(chan writeOp, o.queueSize),
		done:      make(chan struct{}),
	}

	resume := []rune(resumeText)
	ellipsis := ""
	if len(resume) > 2000 {
		resume = resume[:2000]
		ellipsis = "..."
	}
	header := fmt.Sprintf(`# 面试上下文记录

## 基本信息
- **会话ID**: %s
- **用户ID**: %s
- **目标岗位**: %s
- **开始时间**: %s

---

## 简历摘要

`+"```"+`
%s%s
`+"```"+`

---

## 面试对话记录

`, sessionID, userID, jobTitle, o.now().Format("2006-01-02 15:04:05"), string(resume), ellipsis)

	if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
		return nil, fmt.Errorf("transcript: write header: %w", err)
	}

	go w.run()
	return w, nil
}

// Path returns the transcript file location.
func (w *Writer) Path() string { return w.path }

func (w *Writer) run() {
	defer close(w.done)
	for op := range w.queue {
		if op.content != "" {
			f, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				w.logger.Error("transcript append failed", "path", w.path, "error", err)
			} else {
				if _, err := f.WriteString(op.content); err != nil {
					w.logger.Error("transcript write failed", "path", w.path, "error", err)
				}
				f.Close()
			}
		}
		if op.barrier != nil {
			close(op.barrier)
		}
	}
}

func (w *Writer) enqueue(content string) {
	select {
	case w.queue <- writeOp{content: content}:
	default:
		// Queue full; drop rather than stall the interview loop.
		w.logger.Warn("transcript queue full, dropping entry", "session_id", w.sessionID)
	}
}

// flush blocks until every previously queued write has hit the file.
func (w *Writer) flush() {
	barrier := make(chan struct{})
	select {
	case w.queue <- writeOp{barrier: barrier}:
		<-barrier
	case <-w.done:
	}
}

// Close drains pending writes and stops the background goroutine.
func (w *Writer) Close() {
	w.closeOnce.Do(func() {
		w.flush()
		close(w.queue)
		<-w.done
	})
}

// AppendQuestion records an interviewer question.
func (w *Writer) AppendQuestion(question, stage string, index int, isFollowUp bool, source string) {
	followUpMark := ""
	if isFollowUp {
		followUpMark = " (追问)"
	}
	sourceMark := ""
	if source != "" {
		sourceMark = fmt.Sprintf(" [来源: %s]", source)
	}
	w.enqueue(fmt.Sprintf(`
### Q%d%s%s
**阶段**: %s
**时间**: %s

> **面试官**: %s

`, index, followUpMark, sourceMark, stage, time.Now().Format("15:04:05"), question))
}

// AppendAnswer records a candidate answer with optional evaluation.
func (w *Writer) AppendAnswer(answer string, score float64, feedback string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**候选人**: %s\n\n", answer)
	fmt.Fprintf(&sb, "**评分**: %.1f/10\n", score)
	if feedback != "" {
		fmt.Fprintf(&sb, "**评价**: %s\n", feedback)
	}
	sb.WriteString("\n---\n")
	w.enqueue(sb.String())
}

// AppendStageTransition records a stage change.
func (w *Writer) AppendStageTransition(from, to string) {
	w.enqueue(fmt.Sprintf(`
## 🔄 阶段转换: %s → %s
**时间**: %s

---

`, from, to, time.Now().Format("15:04:05")))
}

// AppendSummary records the end-of-interview summary table.
func (w *Writer) AppendSummary(totalQuestions int, totalScore float64, stageScores map[string]float64, durationMinutes int) {
	denominator := totalQuestions
	if denominator < 1 {
		denominator = 1
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, `
---

## 📊 面试总结

- **总问题数**: %d
- **平均得分**: %.1f/10
- **面试时长**: %d 分钟

### 各阶段得分

| 阶段 | 得分 |
|------|------|
`, totalQuestions, totalScore/float64(denominator), durationMinutes)

	stages := make([]string, 0, len(stageScores))
	for stage := range stageScores {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Fprintf(&sb, "| %s | %.1f |\n", stage, stageScores[stage])
	}
	fmt.Fprintf(&sb, "\n---\n\n*记录结束时间: %s*\n", time.Now().Format("2006-01-02 15:04:05"))
	w.enqueue(sb.String())
}

// ReadFull returns the entire transcript after draining pending writes.
func (w *Writer) ReadFull() (string, error) {
	w.flush()
	data, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// ReadRecent returns the header plus the last n dialogue sections, using the
// "---" dividers as section boundaries.
func (w *Writer) ReadRecent(n int) (string, error) {
	full, err := w.ReadFull()
	if err != nil {
		return "", err
	}
	sections := strings.Split(full, "---")
	if len(sections) <= n+2 {
		return full, nil
	}
	kept := append([]string{}, sections[:3]...)
	kept = append(kept, sections[len(sections)-n:]...)
	return strings.Join(kept, "---"), nil
}
