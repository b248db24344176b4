// Package cli implements the interactive todo shell: an in-memory
// task store driven by slash commands with natural language field
// extraction.
package cli

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/luminahq/lumina/internal/models"
)

const idCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

const idLength = 6

// Store is a thread-safe in-memory task store keyed by short id.
type Store struct {
	mu    sync.Mutex
	tasks map[string]*models.Task
}

func NewStore() *Store {
	return &Store{tasks: make(map[string]*models.Task)}
}

// generateID returns a 6-char lowercase alphanumeric id that is not
// already in use. Must be called with the lock held.
func (s *Store) generateID() string {
	buf := make([]byte, idLength)
	for {
		for i := range buf {
			buf[i] = idCharset[rand.Intn(len(idCharset))]
		}
		id := string(buf)
		if _, exists := s.tasks[id]; !exists {
			return id
		}
	}
}

// Create assigns a fresh id and timestamps to the task and stores it.
func (s *Store) Create(task *models.Task) *models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	task.ID = s.generateID()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks[task.ID] = task
	return task
}

func (s *Store) Get(id string) (*models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	return task, ok
}

// Update applies mutate to the task under the lock and bumps
// UpdatedAt. Returns false if the task doesn't exist.
func (s *Store) Update(id string, mutate func(*models.Task)) (*models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	mutate(task)
	task.UpdatedAt = time.Now()
	return task, true
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}

// List returns all tasks ordered by creation time.
func (s *Store) List() []*models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]*models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks
}

// Search matches the query case-insensitively against title,
// description, tags and category.
func (s *Store) Search(query string) []*models.Task {
	query = strings.ToLower(query)

	var results []*models.Task
	for _, task := range s.List() {
		if taskMatches(task, query) {
			results = append(results, task)
		}
	}
	return results
}

func taskMatches(task *models.Task, query string) bool {
	if strings.Contains(strings.ToLower(task.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(task.Description), query) {
		return true
	}
	for _, tag := range task.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(task.Category), query)
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks)
}
