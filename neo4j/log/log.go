/*
 * Copyright (c) the gocore contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      https://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// Package log declares the logging capability this module consumes and a
// default implementation backed by go.uber.org/zap's sugared logger. A
// caller may supply any type satisfying Logger to plug in their own
// logging backend.
package log

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Component names used as the first argument to every Logger call, so a
// single sink can filter or group by subsystem.
const (
	Session = "session"
	Tx      = "tx"
	Result  = "result"
	Router  = "router"
	Retry   = "retry"
	Pool    = "pool"
)

// Logger is the capability this module logs through. Void and Zap (built by
// NewZapLogger) are the two implementations provided out of the box.
type Logger interface {
	Error(component, id string, err error)
	Warnf(component, id, format string, args ...any)
	Infof(component, id, format string, args ...any)
	Debugf(component, id, format string, args ...any)
}

// NewId mints a short opaque identifier used to correlate log lines for one
// session, transaction or result across its lifetime.
func NewId() string {
	return uuid.NewString()[:8]
}

// Void discards everything; used by components that were not handed a
// logger.
type Void struct{}

func (Void) Error(string, string, error)          {}
func (Void) Warnf(string, string, string, ...any)  {}
func (Void) Infof(string, string, string, ...any)  {}
func (Void) Debugf(string, string, string, ...any) {}

// Zap adapts a *zap.SugaredLogger to the Logger contract.
type Zap struct {
	S *zap.SugaredLogger
}

// NewZapLogger builds a Zap logger from a production zap configuration.
func NewZapLogger() (*Zap, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Zap{S: l.Sugar()}, nil
}

func (z *Zap) Error(component, id string, err error) {
	z.S.Errorw(err.Error(), "component", component, "id", id)
}

func (z *Zap) Warnf(component, id, format string, args ...any) {
	z.S.Warnw(fmt.Sprintf(format, args...), "component", component, "id", id)
}

func (z *Zap) Infof(component, id, format string, args ...any) {
	z.S.Infow(fmt.Sprintf(format, args...), "component", component, "id", id)
}

func (z *Zap) Debugf(component, id, format string, args ...any) {
	z.S.Debugw(fmt.Sprintf(format, args...), "component", component, "id", id)
}
