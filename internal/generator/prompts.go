package generator

import (
	"fmt"
	"strings"
)

func orNotSpecified(values []string) string {
	if len(values) == 0 {
		return "Not specified"
	}
	return strings.Join(values, ", ")
}

func RecommendPrompt(skills, interests []string, educationLevel, domain string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are an expert career advisor for a personalised education platform.

A user has provided the following profile:
- Skills: %s
- Interests: %s
- Education Level: %s
- Preferred Domain: %s

Your task: Recommend exactly 3 career paths that best match this profile.

Respond ONLY with a valid JSON object in this exact structure:
{
  "recommendations": [
    {
      "title": "Career Title",
      "description": "2-3 sentence description",
      "match_score": 92,
      "required_skills": ["skill1", "skill2", "skill3"],
      "avg_salary_usd": 95000,
      "job_outlook": "booming",
      "time_to_entry_months": 6
    }
  ],
  "analysis_summary": "A brief paragraph explaining why these careers suit this user."
}

job_outlook must be one of: "declining", "stable", "growing", "booming".
`, orNotSpecified(skills), orNotSpecified(interests), educationLevel, domain))
}

// RoadmapPrompt 要求 sections 为有序数组，顺序即学习顺序
func RoadmapPrompt(career, domain, level string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a senior curriculum designer for an AI-powered education platform.

Create a detailed, structured learning roadmap for the following:
- Career: %[1]s
- Domain: %[2]s
- User's Current Level: %[3]s

Respond ONLY with a valid JSON object in this exact structure:
{
  "career": "%[1]s",
  "domain": "%[2]s",
  "overview": "Brief overview of this career path",
  "total_estimated_weeks": 52,
  "sections": [
    {
      "id": "section_beginner",
      "title": "Section Title",
      "stage": "Beginner",
      "estimated_weeks": 16,
      "topics": [
        {
          "id": "topic_001",
          "title": "Topic Name",
          "description": "What this topic covers",
          "difficulty": "beginner",
          "estimated_hours": 10,
          "is_optional": false,
          "prerequisites": []
        }
      ]
    }
  ]
}

Use exactly three sections in order with stages "Beginner", "Intermediate" and "Advanced".
Topic ids must be unique across the whole roadmap. Include at least 4 topics per section.
`, career, domain, level))
}

func AnalyzePrompt(resumeText, targetCareer, domain string) string {
	if domain == "" {
		domain = "Not specified"
	}
	return strings.TrimSpace(fmt.Sprintf(`
You are a career skills analyst on an AI education platform.

Analyse the following resume against the target career and identify skill gaps.

Target Career: %[2]s
Domain: %[3]s

Resume:
---
%[1]s
---

Respond ONLY with a valid JSON object in this exact structure:
{
  "target_career": "%[2]s",
  "existing_skills": ["skill1", "skill2"],
  "missing_skills": [
    {
      "skill": "Skill Name",
      "importance": "critical",
      "estimated_time_weeks": 4,
      "resources": [
        { "title": "Resource Name", "url": "https://example.com", "type": "course", "free": true, "duration_hours": 20 }
      ]
    }
  ],
  "strengths": ["strength1", "strength2"],
  "improvement_areas": ["area1", "area2"],
  "overall_readiness_score": 65,
  "recommended_next_steps": ["step1", "step2", "step3"]
}

importance must be one of: "critical", "important", "nice_to_have".
overall_readiness_score is 0-100.
`, resumeText, targetCareer, domain))
}

func MentorSystemPrompt(careerContext string) string {
	var b strings.Builder
	b.WriteString(`You are an expert AI career mentor on a personalised education platform called "Career Education Advisor".

Your role:
- Guide learners through their career journey with empathy and expertise
- Answer questions about skills, courses, job roles, career transitions, and industry trends
- Provide actionable, specific advice tailored to the user's goals
- Encourage, motivate, and keep responses concise unless detail is requested
`)
	if strings.TrimSpace(careerContext) != "" {
		b.WriteString("- The user is currently exploring or pursuing: " + careerContext + "\n")
	}
	b.WriteString(`
Always be honest if you are unsure. Never fabricate specific salary figures or job availability data.
Respond in clear, friendly, professional language.`)
	return b.String()
}
