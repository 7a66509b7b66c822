package editor

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"resume-intake/internal/types"
)

// Section 表单中的动态列表
type Section string

const (
	SectionWorkExperience    Section = "workExperience"
	SectionProjectExperience Section = "projectExperience"
	SectionEducation         Section = "education"
	SectionWorkSkills        Section = "workSkills"
)

func appendEntry(v *types.ResumeFormValues, section Section) error {
	switch section {
	case SectionWorkExperience:
		v.WorkExperience = append(v.WorkExperience, types.WorkExperienceForm{})
	case SectionProjectExperience:
		v.ProjectExperience = append(v.ProjectExperience, types.ProjectExperienceForm{})
	case SectionEducation:
		v.Education = append(v.Education, types.EducationForm{})
	case SectionWorkSkills:
		v.WorkSkills = append(v.WorkSkills, types.WorkSkill{})
	default:
		return fmt.Errorf("%w: 未知列表 %q", ErrInvalidPath, section)
	}
	return nil
}

func removeEntry(v *types.ResumeFormValues, section Section, index int) error {
	var n int
	switch section {
	case SectionWorkExperience:
		n = len(v.WorkExperience)
	case SectionProjectExperience:
		n = len(v.ProjectExperience)
	case SectionEducation:
		n = len(v.Education)
	case SectionWorkSkills:
		n = len(v.WorkSkills)
	default:
		return fmt.Errorf("%w: 未知列表 %q", ErrInvalidPath, section)
	}
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %s 索引 %d 越界", ErrInvalidPath, section, index)
	}

	switch section {
	case SectionWorkExperience:
		v.WorkExperience = append(v.WorkExperience[:index], v.WorkExperience[index+1:]...)
	case SectionProjectExperience:
		v.ProjectExperience = append(v.ProjectExperience[:index], v.ProjectExperience[index+1:]...)
	case SectionEducation:
		v.Education = append(v.Education[:index], v.Education[index+1:]...)
	case SectionWorkSkills:
		v.WorkSkills = append(v.WorkSkills[:index], v.WorkSkills[index+1:]...)
	}
	return nil
}

// setPath 按 json 字段名逐段定位。可选枚举字段传空字符串时置为 nil。
func setPath(v *types.ResumeFormValues, path, value string) error {
	if path == "" {
		return ErrInvalidPath
	}
	target := reflect.ValueOf(v).Elem()
	for _, seg := range strings.Split(path, ".") {
		switch target.Kind() {
		case reflect.Struct:
			field, ok := fieldByJSONName(target, seg)
			if !ok {
				return fmt.Errorf("%w: 未知字段 %q", ErrInvalidPath, seg)
			}
			target = field
		case reflect.Slice:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= target.Len() {
				return fmt.Errorf("%w: 索引 %q 越界", ErrInvalidPath, seg)
			}
			target = target.Index(idx)
		default:
			return fmt.Errorf("%w: %q 不是容器字段", ErrInvalidPath, seg)
		}
	}

	switch {
	case target.Kind() == reflect.String:
		target.SetString(value)
	case target.Kind() == reflect.Pointer && target.Type().Elem().Kind() == reflect.String:
		if value == "" {
			target.Set(reflect.Zero(target.Type()))
			return nil
		}
		p := reflect.New(target.Type().Elem())
		p.Elem().SetString(value)
		target.Set(p)
	default:
		return fmt.Errorf("%w: %q 不能直接赋值", ErrInvalidPath, path)
	}
	return nil
}

func fieldByJSONName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
