// Package sched держит in-memory расписание ежемесячных напоминаний и
// разовых проверок просрочки. Триггеры не переживают рестарт процесса:
// при старте их заново взводит загрузка привязок из базы.
package sched

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Job func(ctx context.Context)

type Scheduler struct {
	loc *time.Location

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	recurring map[string]chan struct{}
	oneShot   map[string]*time.Timer
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		loc:       loc,
		ctx:       ctx,
		cancel:    cancel,
		recurring: make(map[string]chan struct{}),
		oneShot:   make(map[string]*time.Timer),
	}
}

// ArmRecurring взводит ежемесячный триггер пары (user, admin). Повторный
// вызов с тем же ключом заменяет старый триггер без дублирующих срабатываний.
// Невалидные параметры отклоняются на месте, триггер не взводится.
func (s *Scheduler) ArmRecurring(userID, adminID int64, day, hour, minute int, job Job) error {
	if day < 1 || day > 31 {
		return fmt.Errorf("day out of range: %d", day)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("time out of range: %02d:%02d", hour, minute)
	}

	key := recurringKey(userID, adminID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.recurring[key]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	s.recurring[key] = stop

	go s.runRecurring(stop, day, hour, minute, job)
	return nil
}

// DisarmRecurring снимает триггер пары. Отсутствие триггера — не ошибка.
func (s *Scheduler) DisarmRecurring(userID, adminID int64) {
	key := recurringKey(userID, adminID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.recurring[key]; ok {
		close(stop)
		delete(s.recurring, key)
	}
}

// ArmOneShot планирует разовый вызов. id должен включать экземпляр
// срабатывания (у проверок просрочки — message_id напоминания), чтобы
// несколько висящих напоминаний получили независимые проверки.
func (s *Scheduler) ArmOneShot(id string, runAt time.Time, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.oneShot[id]; ok {
		t.Stop()
	}
	s.oneShot[id] = time.AfterFunc(time.Until(runAt), func() {
		s.mu.Lock()
		delete(s.oneShot, id)
		s.mu.Unlock()
		s.fire(job)
	})
}

// Stop снимает все триггеры. Уже запущенные срабатывания получают отменённый
// контекст.
func (s *Scheduler) Stop() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, stop := range s.recurring {
		close(stop)
		delete(s.recurring, key)
	}
	for id, t := range s.oneShot {
		t.Stop()
		delete(s.oneShot, id)
	}
}

func (s *Scheduler) runRecurring(stop chan struct{}, day, hour, minute int, job Job) {
	for {
		next := NextOccurrence(day, hour, minute, time.Now().In(s.loc))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			s.fire(job)
		case <-stop:
			timer.Stop()
			return
		case <-s.ctx.Done():
			timer.Stop()
			return
		}
	}
}

// fire запускает срабатывание отдельной горутиной: упавший джоб логируется
// и не валит процесс, повторов нет — пропущенное напоминание ждёт
// следующего месяца.
func (s *Scheduler) fire(job Job) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("sched: job panic: %v", r)
			}
		}()
		job(s.ctx)
	}()
}

func recurringKey(userID, adminID int64) string {
	return fmt.Sprintf("payment_%d_%d", userID, adminID)
}

// NextOccurrence — ближайшее будущее срабатывание для (день, час, минута).
// День прижимается к длине месяца отдельно для текущего и следующего
// кандидата: 31-е в апреле — это 30-е, но в мае снова 31-е.
func NextOccurrence(day, hour, minute int, now time.Time) time.Time {
	year, month := now.Year(), now.Month()
	cand := time.Date(year, month, clampDay(day, year, month), hour, minute, 0, 0, now.Location())
	if cand.After(now) {
		return cand
	}
	month++
	if month > time.December {
		month = time.January
		year++
	}
	return time.Date(year, month, clampDay(day, year, month), hour, minute, 0, 0, now.Location())
}

func clampDay(day, year int, month time.Month) int {
	if last := daysIn(year, month); day > last {
		return last
	}
	return day
}

func daysIn(year int, month time.Month) int {
	// день 0 следующего месяца = последний день этого
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseClock разбирает "HH:MM" с проверкой диапазонов.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad time format: %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad time format: %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad time format: %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time out of range: %q", s)
	}
	return hour, minute, nil
}
