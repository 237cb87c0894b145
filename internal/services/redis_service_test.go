package services

import "testing"

func TestNewRedisServiceBadURL(t *testing.T) {
	// The service is a process-wide singleton: a failed first initialization
	// must surface the same error on every later call, never (nil, nil).
	svc, err := NewRedisService("not-a-redis-url")
	if err == nil {
		t.Fatal("Expected error for invalid Redis URL")
	}
	if svc != nil {
		t.Errorf("Expected nil service on init failure, got %+v", svc)
	}

	svc, err = NewRedisService("not-a-redis-url")
	if err == nil {
		t.Error("Expected cached init error on repeat call, got nil")
	}
	if svc != nil {
		t.Errorf("Expected nil service on repeat call, got %+v", svc)
	}
}
