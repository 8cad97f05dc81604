package controllers

import (
	"net/http"
	"strings"

	valueobjects "taskflow/internal/domain/value_objects"
)

type resourceRoute struct {
	methods  []string
	segments []string
	event    valueobjects.EventType
}

// resourceEvents binds mutating resource routes to the event emitted on success.
// "*" matches a single path segment.
var resourceEvents = []resourceRoute{
	{methods: []string{http.MethodPost}, segments: []string{"v1", "tasks"}, event: valueobjects.EventTaskCreated},
	{methods: []string{http.MethodPut, http.MethodPatch}, segments: []string{"v1", "tasks", "*"}, event: valueobjects.EventTaskUpdated},
	{methods: []string{http.MethodPost}, segments: []string{"v1", "tasks", "*", "complete"}, event: valueobjects.EventTaskCompleted},
	{methods: []string{http.MethodDelete}, segments: []string{"v1", "tasks", "*"}, event: valueobjects.EventTaskDeleted},
	{methods: []string{http.MethodPost}, segments: []string{"v1", "tasks", "*", "comments"}, event: valueobjects.EventCommentCreated},
	{methods: []string{http.MethodPut, http.MethodPatch}, segments: []string{"v1", "comments", "*"}, event: valueobjects.EventCommentUpdated},
	{methods: []string{http.MethodDelete}, segments: []string{"v1", "comments", "*"}, event: valueobjects.EventCommentDeleted},
	{methods: []string{http.MethodPost}, segments: []string{"v1", "tasks", "*", "files"}, event: valueobjects.EventFileUploaded},
	{methods: []string{http.MethodDelete}, segments: []string{"v1", "files", "*"}, event: valueobjects.EventFileDeleted},
}

// ResourceEventFor returns the event bound to method and path, or "" when the
// route emits nothing.
func ResourceEventFor(method string, path string) valueobjects.EventType {
	segments := splitPath(path)
	for _, route := range resourceEvents {
		if !containsMethod(route.methods, method) || len(route.segments) != len(segments) {
			continue
		}
		if matchSegments(route.segments, segments) {
			return route.event
		}
	}
	return ""
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func containsMethod(methods []string, method string) bool {
	for _, candidate := range methods {
		if strings.EqualFold(candidate, method) {
			return true
		}
	}
	return false
}

func matchSegments(pattern []string, segments []string) bool {
	for i, expected := range pattern {
		if expected == "*" {
			if segments[i] == "" {
				return false
			}
			continue
		}
		if expected != segments[i] {
			return false
		}
	}
	return true
}
