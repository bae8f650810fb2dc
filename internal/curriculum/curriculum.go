package curriculum

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
)

const dateLayout = "2006-01-02"

// Document is a batch and its tasks as authored in a curriculum YAML file.
type Document struct {
	Batch BatchSpec  `yaml:"batch"`
	Tasks []TaskSpec `yaml:"tasks"`
}

type BatchSpec struct {
	Title         string   `yaml:"title"`
	CourseName    string   `yaml:"course_name"`
	Description   string   `yaml:"description"`
	StartDate     string   `yaml:"start_date"`
	DurationDays  int      `yaml:"duration_days"`
	BannerImage   string   `yaml:"banner_image"`
	Instructor    string   `yaml:"instructor"`
	Price         float64  `yaml:"price"`
	MaxStudents   int      `yaml:"max_students"`
	WhatYouLearn  []string `yaml:"what_you_learn"`
	Prerequisites []string `yaml:"prerequisites"`
	Benefits      []string `yaml:"benefits"`
	Active        *bool    `yaml:"active"`
}

type TaskSpec struct {
	Day          int           `yaml:"day"`
	Order        int           `yaml:"order"`
	Title        string        `yaml:"title"`
	Description  string        `yaml:"description"`
	Published    *bool         `yaml:"published"`
	Contents     []ContentSpec `yaml:"contents"`
	Resources    []string      `yaml:"resources"`
	CodeSnippets []string      `yaml:"code_snippets"`
	PDFs         []string      `yaml:"pdfs"`
	Images       []string      `yaml:"images"`
}

type ContentSpec struct {
	Type           string         `yaml:"type"`
	Title          string         `yaml:"title"`
	VideoURL       string         `yaml:"video_url"`
	Assignment     string         `yaml:"assignment"`
	ReadingContent string         `yaml:"reading_content"`
	ProjectDetails string         `yaml:"project_details"`
	Quiz           []QuestionSpec `yaml:"quiz"`
}

type QuestionSpec struct {
	Question     string   `yaml:"question"`
	Options      []string `yaml:"options"`
	CorrectIndex int      `yaml:"correct_index"`
	Explanation  string   `yaml:"explanation"`
}

// Parse decodes a single curriculum document. Unknown keys are rejected.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("curriculum: empty document")
		}
		return nil, fmt.Errorf("curriculum: decode: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func ParseBytes(raw []byte) (*Document, error) {
	return Parse(bytes.NewReader(raw))
}

func (d *Document) Validate() error {
	var problems []string
	if strings.TrimSpace(d.Batch.Title) == "" {
		problems = append(problems, "batch.title is required")
	}
	if strings.TrimSpace(d.Batch.CourseName) == "" {
		problems = append(problems, "batch.course_name is required")
	}
	if _, err := time.Parse(dateLayout, strings.TrimSpace(d.Batch.StartDate)); err != nil {
		problems = append(problems, fmt.Sprintf("batch.start_date %q must look like %s", d.Batch.StartDate, dateLayout))
	}
	if d.Batch.DurationDays < 1 {
		problems = append(problems, "batch.duration_days must be at least 1")
	}
	if d.Batch.MaxStudents < 1 {
		problems = append(problems, "batch.max_students must be at least 1")
	}
	if d.Batch.Price < 0 {
		problems = append(problems, "batch.price must not be negative")
	}
	for i, t := range d.Tasks {
		if t.Day < 1 || t.Day > d.Batch.DurationDays {
			problems = append(problems, fmt.Sprintf("tasks[%d].day %d is outside 1..%d", i, t.Day, d.Batch.DurationDays))
		}
		if strings.TrimSpace(t.Title) == "" {
			problems = append(problems, fmt.Sprintf("tasks[%d].title is required", i))
		}
		if len(t.Contents) == 0 {
			problems = append(problems, fmt.Sprintf("tasks[%d].contents needs at least one entry", i))
		}
		for j, c := range t.Contents {
			if !types.ContentType(c.Type).Valid() {
				problems = append(problems, fmt.Sprintf("tasks[%d].contents[%d].type %q is not supported", i, j, c.Type))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("curriculum: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ToBatch converts the document header into an unsaved batch. Active defaults to true.
func (d *Document) ToBatch() *types.Batch {
	start, _ := time.Parse(dateLayout, strings.TrimSpace(d.Batch.StartDate))
	active := true
	if d.Batch.Active != nil {
		active = *d.Batch.Active
	}
	return &types.Batch{
		Title:         strings.TrimSpace(d.Batch.Title),
		CourseName:    strings.TrimSpace(d.Batch.CourseName),
		Description:   d.Batch.Description,
		StartDate:     start.UTC(),
		DurationDays:  d.Batch.DurationDays,
		BannerImage:   d.Batch.BannerImage,
		Instructor:    d.Batch.Instructor,
		Price:         d.Batch.Price,
		MaxStudents:   d.Batch.MaxStudents,
		WhatYouLearn:  nonNil(d.Batch.WhatYouLearn),
		Prerequisites: nonNil(d.Batch.Prerequisites),
		Benefits:      nonNil(d.Batch.Benefits),
		IsActive:      active,
	}
}

// ToTasks converts the task list into unsaved tasks for batchID. Published defaults to true.
func (d *Document) ToTasks(batchID uuid.UUID) []*types.Task {
	out := make([]*types.Task, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		published := true
		if t.Published != nil {
			published = *t.Published
		}
		contents := make([]types.TaskContent, 0, len(t.Contents))
		for _, c := range t.Contents {
			quiz := make([]types.QuizQuestion, 0, len(c.Quiz))
			for _, q := range c.Quiz {
				quiz = append(quiz, types.QuizQuestion{
					Question:     q.Question,
					Options:      q.Options,
					CorrectIndex: q.CorrectIndex,
					Explanation:  q.Explanation,
				})
			}
			contents = append(contents, types.TaskContent{
				Type:           types.ContentType(c.Type),
				Title:          c.Title,
				VideoURL:       c.VideoURL,
				Assignment:     c.Assignment,
				ReadingContent: c.ReadingContent,
				ProjectDetails: c.ProjectDetails,
				Quiz:           quiz,
			})
		}
		out = append(out, &types.Task{
			BatchID:      batchID,
			DayNumber:    t.Day,
			Order:        t.Order,
			Title:        strings.TrimSpace(t.Title),
			Description:  t.Description,
			Contents:     contents,
			Resources:    nonNil(t.Resources),
			CodeSnippets: nonNil(t.CodeSnippets),
			PDFs:         nonNil(t.PDFs),
			Images:       nonNil(t.Images),
			IsPublished:  published,
		})
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
