// Package editor 维护一个可编辑的简历表单会话。
//
// 会话持有当前表单状态，每次修改后重新派生结构化简历并通知订阅方；
// 外部输入变化时整体替换表单，不做合并。
package editor

import (
	"errors"
	"fmt"
	"sync"

	"resume-intake/internal/logger"
	"resume-intake/internal/profile"
	"resume-intake/internal/types"
)

var (
	// ErrReadOnly 只读会话拒绝任何修改
	ErrReadOnly = errors.New("只读模式下不能修改表单")
	// ErrInvalidPath 字段路径不存在或索引越界
	ErrInvalidPath = errors.New("无效的字段路径")
	// ErrApplyPanic 修改函数执行时 panic，本次修改被丢弃
	ErrApplyPanic = errors.New("修改表单时发生异常")
)

// Input 会话的外部输入。Struct 优先于 Values，两者都为空时使用默认表单。
type Input struct {
	Struct       *types.StructInfo
	Values       *types.ResumeFormValues
	FallbackName *string
}

// Option 会话选项
type Option func(*Session)

// WithReadOnly 只读模式：仍然做表单回填，但禁止修改
func WithReadOnly(readOnly bool) Option {
	return func(s *Session) {
		s.readOnly = readOnly
	}
}

// WithOnStructChange 每次修改后接收新的结构化简历
func WithOnStructChange(fn func(types.StructInfo)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// WithMapper 替换表单到结构化简历的映射函数
func WithMapper(fn func(types.ResumeFormValues) types.StructInfo) Option {
	return func(s *Session) {
		if fn != nil {
			s.toStruct = fn
		}
	}
}

// Session 表单编辑会话，可并发使用
type Session struct {
	mu       sync.Mutex
	readOnly bool
	input    Input
	values   types.ResumeFormValues
	last     *types.StructInfo

	toStruct func(types.ResumeFormValues) types.StructInfo
	onChange func(types.StructInfo)

	subsMu sync.Mutex
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(types.StructInfo)
}

// New 创建会话，初始为默认空表单
func New(opts ...Option) *Session {
	s := &Session{
		toStruct: profile.ToStruct,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Load(Input{})
	return s
}

// ReadOnly 是否只读
func (s *Session) ReadOnly() bool {
	return s.readOnly
}

// Load 用新的外部输入整体替换表单状态，未保存的修改全部丢弃。
// 加载本身不触发变更通知。
func (s *Session) Load(in Input) {
	values := hydrate(in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = in
	s.values = values
	s.last = nil
	if st, ok := s.mapSafely(values); ok {
		s.last = &st
	}
}

// Reset 重新应用最近一次加载的输入
func (s *Session) Reset() {
	s.mu.Lock()
	in := s.input
	s.mu.Unlock()
	s.Load(in)
}

func hydrate(in Input) types.ResumeFormValues {
	switch {
	case in.Struct != nil:
		return profile.ToForm(in.Struct, in.FallbackName)
	case in.Values != nil:
		values := in.Values.Clone()
		if values.Name == "" && in.FallbackName != nil {
			values.Name = *in.FallbackName
		}
		return values
	default:
		return profile.EmptyForm(in.FallbackName)
	}
}

// Values 返回当前表单的副本
func (s *Session) Values() types.ResumeFormValues {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Clone()
}

// Last 最近一次成功派生的结构化简历
func (s *Session) Last() (types.StructInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return types.StructInfo{}, false
	}
	return *s.last, true
}

// Validate 校验当前表单
func (s *Session) Validate() error {
	return profile.Validate(s.Values())
}

// Subscribe 订阅结构化简历变更，按订阅顺序通知，返回取消函数
func (s *Session) Subscribe(fn func(types.StructInfo)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Set 按路径修改单个字段，例如 "phone"、"workExperience.0.title"
func (s *Session) Set(path, value string) error {
	return s.mutate(func(v *types.ResumeFormValues) error {
		if err := setPath(v, path, value); err != nil {
			return fmt.Errorf("设置字段 %s 失败: %w", path, err)
		}
		return nil
	})
}

// Update 以函数方式修改表单
func (s *Session) Update(fn func(*types.ResumeFormValues)) error {
	return s.mutate(func(v *types.ResumeFormValues) error {
		fn(v)
		return nil
	})
}

// AppendEntry 在动态列表末尾追加一个空条目
func (s *Session) AppendEntry(section Section) error {
	return s.mutate(func(v *types.ResumeFormValues) error {
		return appendEntry(v, section)
	})
}

// RemoveEntry 删除动态列表中的一个条目
func (s *Session) RemoveEntry(section Section, index int) error {
	return s.mutate(func(v *types.ResumeFormValues) error {
		return removeEntry(v, section, index)
	})
}

// mutate 在副本上应用修改，成功后提交并派生结构化简历。
// 回调在锁外执行。
func (s *Session) mutate(apply func(*types.ResumeFormValues) error) error {
	if s.readOnly {
		return ErrReadOnly
	}

	st, ok, err := s.commit(apply)
	if err != nil {
		return err
	}
	if ok {
		s.emit(st)
	}
	return nil
}

// commit 持锁应用修改。修改函数 panic 时表单保持不变，锁照常释放。
func (s *Session) commit(apply func(*types.ResumeFormValues) error) (st types.StructInfo, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.values.Clone()
	if err := applySafely(apply, &next); err != nil {
		return types.StructInfo{}, false, err
	}
	s.values = next
	st, ok = s.mapSafely(next)
	if ok {
		s.last = &st
	}
	return st, ok, nil
}

func applySafely(apply func(*types.ResumeFormValues) error, v *types.ResumeFormValues) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrApplyPanic, r)
		}
	}()
	return apply(v)
}

// mapSafely 映射失败时记录日志并保留上一次的结果
func (s *Session) mapSafely(values types.ResumeFormValues) (st types.StructInfo, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Interface("panic", r).Msg("表单映射为结构化简历失败，保留上一次结果")
			ok = false
		}
	}()
	return s.toStruct(values.Clone()), true
}

func (s *Session) emit(st types.StructInfo) {
	if s.onChange != nil {
		callSafely(s.onChange, st)
	}

	s.subsMu.Lock()
	subs := s.subs
	s.subsMu.Unlock()

	for _, sub := range subs {
		callSafely(sub.fn, st)
	}
}

func callSafely(fn func(types.StructInfo), st types.StructInfo) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Interface("panic", r).Msg("结构化简历变更回调异常")
		}
	}()
	fn(st)
}
