// Package domain holds the core entities of the grading pipeline: users,
// essays and their versions, rubrics, and grading results. Entities validate
// themselves and carry no storage or transport concerns.
package domain
