package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/classroom"
	"github.com/Aarth-Web/ss-backend/core/school"
	"github.com/Aarth-Web/ss-backend/core/user"
)

var (
	notificationBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "absence_notification_batches_total",
		Help: "Number of absence notification batches dispatched to the worker pool.",
	})
	smsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "absence_sms_sent_total",
		Help: "Number of absence SMS messages sent successfully.",
	})
	smsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "absence_sms_failed_total",
		Help: "Number of absence SMS messages that could not be sent.",
	})
)

type batch struct {
	studentIDs  []string
	classroomID string
	date        time.Time
}

// Notifier delivers absence SMS messages to parents through a bounded queue
// and a fixed pool of workers, keeping provider latency off request paths.
type Notifier struct {
	users      user.Repository
	classrooms classroom.Repository
	schools    school.Repository
	sms        core.SMSService
	translator core.Translator
	logger     core.Logger

	queue chan batch
	wg    sync.WaitGroup
}

func NewNotifier(
	users user.Repository,
	classrooms classroom.Repository,
	schools school.Repository,
	sms core.SMSService,
	translator core.Translator,
	logger core.Logger,
	workers, queueSize int,
) *Notifier {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	n := &Notifier{
		users:      users,
		classrooms: classrooms,
		schools:    schools,
		sms:        sms,
		translator: translator,
		logger:     logger,
		queue:      make(chan batch, queueSize),
	}
	for i := 0; i < workers; i++ {
		n.wg.Add(1)
		go n.work()
	}
	return n
}

// Dispatch hands a batch to the worker pool. It blocks only when the queue is
// full.
func (n *Notifier) Dispatch(studentIDs []string, classroomID string, date time.Time) {
	notificationBatches.Inc()
	n.queue <- batch{studentIDs: studentIDs, classroomID: classroomID, date: date}
}

// Close stops accepting batches and waits for in-flight ones to finish.
func (n *Notifier) Close() {
	close(n.queue)
	n.wg.Wait()
}

func (n *Notifier) work() {
	defer n.wg.Done()
	for b := range n.queue {
		n.process(b)
	}
}

func (n *Notifier) process(b batch) {
	ctx := context.Background()

	students, err := n.users.GetUsersByID(ctx, b.studentIDs)
	if err != nil {
		n.logger.Error(fmt.Sprintf("absence notifications: loading students failed: %v", err))
		return
	}

	className, schoolName := "Unknown", "School"
	if cls, err := n.classrooms.GetClassroomByID(ctx, b.classroomID); err == nil {
		if cls.Name != "" {
			className = cls.Name
		}
		if sch, err := n.schools.GetSchoolByID(ctx, cls.SchoolID); err == nil && sch.Name != "" {
			schoolName = sch.Name
		}
	}

	var (
		mu           sync.Mutex
		sent, failed int
		studentGroup sync.WaitGroup
	)
	for _, st := range students {
		st := st
		studentGroup.Add(1)
		go func() {
			defer studentGroup.Done()
			ok := n.notify(ctx, st, className, schoolName, b.date)
			mu.Lock()
			if ok {
				sent++
			} else {
				failed++
			}
			mu.Unlock()
		}()
	}
	studentGroup.Wait()

	n.logger.Info(fmt.Sprintf("absence notification batch done: %d sent, %d failed", sent, failed))
}

func (n *Notifier) notify(ctx context.Context, st user.User, className, schoolName string, date time.Time) bool {
	if st.Mobile == "" {
		n.logger.Warn(fmt.Sprintf("no mobile number found for student %s, skipping SMS", st.Name))
		smsFailed.Inc()
		return false
	}

	lang := st.ParentLanguage()
	msg := ComposeMessage(st.Name, className, FormatDate(date, lang), schoolName)
	if lang != user.LanguageEnglish {
		translated, err := n.translator.Translate(ctx, msg, "en", user.LanguageCode(lang))
		if err != nil {
			n.logger.Warn(fmt.Sprintf("translating message to %s failed, sending english: %v", lang, err))
		} else {
			msg = translated
		}
	}

	if err := n.sms.Send(ctx, st.Mobile, msg); err != nil {
		n.logger.Warn(fmt.Sprintf("sending absence SMS for student %s failed: %v", st.Name, err))
		smsFailed.Inc()
		return false
	}
	smsSent.Inc()
	return true
}
