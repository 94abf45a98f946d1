package models

import "time"

// DiscussionThread is a student question attached to a lesson.
type DiscussionThread struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	LessonID  string    `db:"lesson_id" json:"lesson_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Title     string    `db:"title" json:"title"`
	Question  string    `db:"question" json:"question"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DiscussionPost is a reply within a thread.
type DiscussionPost struct {
	ID        string    `db:"id" json:"id"`
	ThreadID  string    `db:"thread_id" json:"thread_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
