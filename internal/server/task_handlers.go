package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/Tomlord1122/otp-todo/internal/domain"
	"github.com/Tomlord1122/otp-todo/internal/service"
	"github.com/Tomlord1122/otp-todo/internal/session"
)

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r)
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, extra ...session.Flash) {
	tasks, err := s.tasks.ListTasks(r.Context())
	if err != nil {
		s.internalError(w, r, err, "list tasks")
		return
	}

	sess := sessionFromContext(r.Context())
	s.render(w, r, http.StatusOK, pageIndex, viewData{
		Title: "Tasks",
		Email: sess.Email,
		Tasks: tasks,
	}, extra...)
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	sess := sessionFromContext(r.Context())
	_, err := s.tasks.CreateTask(r.Context(), service.CreateTaskRequest{
		Description: r.PostFormValue("task_description"),
		DueDate:     r.PostFormValue("due_date"),
		NotifyEmail: sess.Email,
	})
	switch {
	case errors.Is(err, service.ErrTaskIncomplete):
		// Nothing to create; show the list again without a notice.
		s.renderIndex(w, r)
		return
	case errors.Is(err, service.ErrTaskTooLong):
		s.renderIndex(w, r, session.NewFlash(session.Danger,
			"Task description must be at most 200 characters and due date at most 50."))
		return
	case err != nil:
		s.internalError(w, r, err, "create task")
		return
	}

	if err := s.sessions.AddFlash(w, r, session.Success, "Task added successfully!"); err != nil {
		s.internalError(w, r, err, "save flash")
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) completeTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if _, err := s.tasks.ToggleComplete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			http.NotFound(w, r)
			return
		}
		s.internalError(w, r, err, "toggle task")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := s.tasks.DeleteTask(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			http.NotFound(w, r)
			return
		}
		s.internalError(w, r, err, "delete task")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) listTasksJSONHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.ListTasks(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list tasks")
		respondWithError(w, r, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}
	respondWithJSON(w, r, http.StatusOK, tasks)
}

// taskID parses the {id} URL parameter. Zero and out-of-range values are rejected.
func taskID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
