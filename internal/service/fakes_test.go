package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

func cloneCourse(c models.Course) *models.Course {
	lessons := make(models.Lessons, len(c.Lessons))
	copy(lessons, c.Lessons)
	c.Lessons = lessons
	return &c
}

type fakeCourseStore struct {
	courses   map[string]models.Course
	staleNext int
	saves     int
	createErr error
	err       error
}

func newFakeCourseStore(courses ...models.Course) *fakeCourseStore {
	store := &fakeCourseStore{courses: map[string]models.Course{}}
	for _, c := range courses {
		store.courses[c.ID] = c
	}
	return store
}

func (f *fakeCourseStore) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneCourse(c), nil
}

func (f *fakeCourseStore) FindBySlug(ctx context.Context, slug string) (*models.Course, error) {
	for _, c := range f.courses {
		if c.Slug == slug {
			return cloneCourse(c), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseStore) FindByIDs(ctx context.Context, ids []string) (map[string]models.Course, error) {
	result := map[string]models.Course{}
	for _, id := range ids {
		if c, ok := f.courses[id]; ok {
			result[id] = *cloneCourse(c)
		}
	}
	return result, nil
}

func (f *fakeCourseStore) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	existing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := f.courses[id]; ok {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

func (f *fakeCourseStore) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	var result []models.Course
	for _, c := range f.sorted() {
		if c.IsInstructor(instructorID) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (f *fakeCourseStore) ListExcluding(ctx context.Context, ids []string) ([]models.Course, error) {
	excluded := map[string]bool{}
	for _, id := range ids {
		excluded[id] = true
	}
	var result []models.Course
	for _, c := range f.sorted() {
		if !excluded[c.ID] {
			result = append(result, c)
		}
	}
	return result, nil
}

func (f *fakeCourseStore) List(ctx context.Context, filter dto.CourseFilter) ([]models.Course, int, error) {
	all := f.sorted()
	return all, len(all), nil
}

func (f *fakeCourseStore) Count(ctx context.Context) (int, error) {
	return len(f.courses), nil
}

func (f *fakeCourseStore) Create(ctx context.Context, course *models.Course) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, c := range f.courses {
		if c.Slug == course.Slug {
			return &pq.Error{Code: "23505"}
		}
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	course.Version = 1
	f.courses[course.ID] = *cloneCourse(*course)
	return nil
}

func (f *fakeCourseStore) SaveLessons(ctx context.Context, course *models.Course) error {
	if f.staleNext > 0 {
		f.staleNext--
		stored := f.courses[course.ID]
		stored.Version++
		f.courses[course.ID] = stored
		return appErrors.Clone(appErrors.ErrStaleWrite, "")
	}
	stored, ok := f.courses[course.ID]
	if !ok || stored.Version != course.Version {
		return appErrors.Clone(appErrors.ErrStaleWrite, "")
	}
	course.Version++
	f.saves++
	f.courses[course.ID] = *cloneCourse(*course)
	return nil
}

func (f *fakeCourseStore) sorted() []models.Course {
	all := make([]models.Course, 0, len(f.courses))
	for _, c := range f.courses {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

type fakeEnrollmentStore struct {
	enrollments map[string]models.Enrollment
	staleNext   int
	touched     map[string]string
	err         error
}

func newFakeEnrollmentStore(enrollments ...models.Enrollment) *fakeEnrollmentStore {
	store := &fakeEnrollmentStore{enrollments: map[string]models.Enrollment{}, touched: map[string]string{}}
	for _, e := range enrollments {
		if e.Version == 0 {
			e.Version = 1
		}
		store.enrollments[e.ID] = e
	}
	return store
}

func cloneEnrollment(e models.Enrollment) *models.Enrollment {
	e.CompletedLessons = append(models.LessonSet{}, e.CompletedLessons...)
	e.QuizAttempts = append(models.QuizAttempts{}, e.QuizAttempts...)
	return &e
}

func (f *fakeEnrollmentStore) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	e, ok := f.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneEnrollment(e), nil
}

func (f *fakeEnrollmentStore) FindByStudentAndTarget(ctx context.Context, studentID, enrollableID string) (*models.Enrollment, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.sorted() {
		if e.StudentID == studentID && e.Enrollable.ID == enrollableID {
			return cloneEnrollment(e), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentStore) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	var result []models.Enrollment
	for _, e := range f.sorted() {
		if e.StudentID == studentID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (f *fakeEnrollmentStore) ListByTarget(ctx context.Context, target models.Enrollable) ([]models.Enrollment, error) {
	var result []models.Enrollment
	for _, e := range f.sorted() {
		if e.Enrollable == target {
			result = append(result, e)
		}
	}
	return result, nil
}

func (f *fakeEnrollmentStore) AverageProgressByStudent(ctx context.Context, studentIDs []string) (map[string]float64, error) {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, e := range f.enrollments {
		for _, id := range studentIDs {
			if e.StudentID == id {
				sums[id] += e.Progress
				counts[id]++
			}
		}
	}
	result := map[string]float64{}
	for id, sum := range sums {
		result[id] = sum / float64(counts[id])
	}
	return result, nil
}

func (f *fakeEnrollmentStore) AverageProgress(ctx context.Context, studentIDs []string) (float64, error) {
	var sum float64
	var n int
	for _, e := range f.enrollments {
		for _, id := range studentIDs {
			if e.StudentID == id {
				sum += e.Progress
				n++
			}
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

func (f *fakeEnrollmentStore) CountByTargets(ctx context.Context, ids []string) (map[string]int, error) {
	result := map[string]int{}
	for _, e := range f.enrollments {
		for _, id := range ids {
			if e.Enrollable.ID == id {
				result[id]++
			}
		}
	}
	return result, nil
}

func (f *fakeEnrollmentStore) CountDistinctStudents(ctx context.Context, ids []string) (int, error) {
	students := map[string]bool{}
	for _, e := range f.enrollments {
		for _, id := range ids {
			if e.Enrollable.ID == id {
				students[e.StudentID] = true
			}
		}
	}
	return len(students), nil
}

func (f *fakeEnrollmentStore) Create(ctx context.Context, e *models.Enrollment) error {
	for _, existing := range f.enrollments {
		if existing.StudentID == e.StudentID && existing.Enrollable.ID == e.Enrollable.ID {
			return &pq.Error{Code: "23505"}
		}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Version = 1
	e.EnrollmentDate = time.Now().UTC()
	f.enrollments[e.ID] = *cloneEnrollment(*e)
	return nil
}

func (f *fakeEnrollmentStore) SaveProgress(ctx context.Context, e *models.Enrollment) error {
	stored, ok := f.enrollments[e.ID]
	if f.staleNext > 0 {
		f.staleNext--
		stored.Version++
		f.enrollments[e.ID] = stored
		return appErrors.Clone(appErrors.ErrStaleWrite, "")
	}
	if !ok || stored.Version != e.Version {
		return appErrors.Clone(appErrors.ErrStaleWrite, "")
	}
	stored.Status = e.Status
	stored.Progress = e.Progress
	stored.CompletedLessons = append(models.LessonSet{}, e.CompletedLessons...)
	stored.LastAccessedLessonID = e.LastAccessedLessonID
	stored.Version++
	e.Version = stored.Version
	f.enrollments[e.ID] = stored
	return nil
}

func (f *fakeEnrollmentStore) TouchLastAccessed(ctx context.Context, enrollmentID, lessonID string) error {
	stored, ok := f.enrollments[enrollmentID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.LastAccessedLessonID = &lessonID
	f.enrollments[enrollmentID] = stored
	f.touched[enrollmentID] = lessonID
	return nil
}

func (f *fakeEnrollmentStore) AppendAttempt(ctx context.Context, enrollmentID string, attempt models.QuizAttempt) error {
	stored, ok := f.enrollments[enrollmentID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.QuizAttempts = append(append(models.QuizAttempts{}, stored.QuizAttempts...), attempt)
	f.enrollments[enrollmentID] = stored
	return nil
}

func (f *fakeEnrollmentStore) sorted() []models.Enrollment {
	all := make([]models.Enrollment, 0, len(f.enrollments))
	for _, e := range f.enrollments {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

type fakeUserStore struct {
	users map[string]models.User
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	store := &fakeUserStore{users: map[string]models.User{}}
	for _, u := range users {
		store.users[u.ID] = u
	}
	return store
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (f *fakeUserStore) FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	result := map[string]models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func (f *fakeUserStore) CountByRole(ctx context.Context) (map[models.Role]int, error) {
	result := map[models.Role]int{}
	for _, u := range f.users {
		result[u.Role]++
	}
	return result, nil
}

type fakePathStore struct {
	paths map[string]models.LearningPath
}

func newFakePathStore(paths ...models.LearningPath) *fakePathStore {
	store := &fakePathStore{paths: map[string]models.LearningPath{}}
	for _, p := range paths {
		store.paths[p.ID] = p
	}
	return store
}

func (f *fakePathStore) FindByID(ctx context.Context, id string) (*models.LearningPath, error) {
	p, ok := f.paths[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	p.Modules = append(models.Modules{}, p.Modules...)
	return &p, nil
}

func (f *fakePathStore) ListBySupervisor(ctx context.Context, userID string) ([]models.LearningPath, error) {
	var result []models.LearningPath
	for _, p := range f.paths {
		if p.IsSupervisor(userID) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (f *fakePathStore) Create(ctx context.Context, path *models.LearningPath) error {
	if path.ID == "" {
		path.ID = uuid.NewString()
	}
	f.paths[path.ID] = *path
	return nil
}

func (f *fakePathStore) ReplaceModules(ctx context.Context, path *models.LearningPath) error {
	stored, ok := f.paths[path.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Modules = append(models.Modules{}, path.Modules...)
	f.paths[path.ID] = stored
	return nil
}

type fakeContractStore struct {
	contracts map[string]models.Contract
	students  map[string][]models.User
}

func (f *fakeContractStore) FindByID(ctx context.Context, id string) (*models.Contract, error) {
	c, ok := f.contracts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (f *fakeContractStore) FindActiveByClient(ctx context.Context, clientID string) (*models.Contract, error) {
	for _, c := range f.contracts {
		if c.ClientID == clientID && c.IsActive {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeContractStore) ListStudents(ctx context.Context, contractID string) ([]models.User, error) {
	return f.students[contractID], nil
}

type fakeDiscussionStore struct {
	threads    map[string]models.DiscussionThread
	posts      []models.DiscussionPost
	unanswered int
}

func newFakeDiscussionStore() *fakeDiscussionStore {
	return &fakeDiscussionStore{threads: map[string]models.DiscussionThread{}}
}

func (f *fakeDiscussionStore) CreateThread(ctx context.Context, t *models.DiscussionThread) error {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	f.threads[t.ID] = *t
	return nil
}

func (f *fakeDiscussionStore) FindThread(ctx context.Context, id string) (*models.DiscussionThread, error) {
	t, ok := f.threads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (f *fakeDiscussionStore) ListThreadsByLesson(ctx context.Context, lessonID string) ([]models.DiscussionThread, error) {
	var result []models.DiscussionThread
	for _, t := range f.threads {
		if t.LessonID == lessonID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (f *fakeDiscussionStore) CreatePost(ctx context.Context, p *models.DiscussionPost) error {
	p.ID = uuid.NewString()
	f.posts = append(f.posts, *p)
	return nil
}

func (f *fakeDiscussionStore) ListPosts(ctx context.Context, threadID string) ([]models.DiscussionPost, error) {
	var result []models.DiscussionPost
	for _, p := range f.posts {
		if p.ThreadID == threadID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (f *fakeDiscussionStore) CountUnanswered(ctx context.Context, courseIDs []string, userID string) (int, error) {
	return f.unanswered, nil
}

func strPtr(s string) *string { return &s }

func newLesson(id string, order int) models.Lesson {
	return models.Lesson{ID: id, Title: "Lesson " + id, Order: order, ContentType: models.ContentVideo}
}

func newQuizLesson(id string, order int, questions ...models.Question) models.Lesson {
	l := newLesson(id, order)
	l.ContentType = models.ContentQuiz
	l.ContentData = models.ContentData{Questions: questions}
	return l
}

func newQuestion(id string, correct string, answerIDs ...string) models.Question {
	q := models.Question{ID: id, Text: "Question " + id}
	for _, a := range answerIDs {
		q.Answers = append(q.Answers, models.Answer{ID: a, Text: "Answer " + a, IsCorrect: a == correct})
	}
	return q
}

func courseWith(id string, lessons ...models.Lesson) models.Course {
	return models.Course{ID: id, Title: "Course " + id, Slug: "course-" + id, Lessons: lessons, Version: 1, Status: models.CourseStatusPublished}
}

func courseEnrollment(id, studentID, courseID string, completed ...string) models.Enrollment {
	return models.Enrollment{
		ID:               id,
		StudentID:        studentID,
		Enrollable:       models.CourseTarget(courseID),
		Status:           models.EnrollmentInProgress,
		CompletedLessons: models.LessonSet(completed),
		EnrollmentDate:   time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		Version:          1,
	}
}
