package templates

const generalSystem = `You are an expert meeting assistant. Your job is to analyze meeting transcripts and produce clear, actionable meeting notes.

You always:
- Write in professional, clear language
- Attribute action items to specific people when mentioned
- Include any clarified details provided
- Focus on decisions made and next steps

Format your output with clear sections:
1. SUMMARY - A 2-3 paragraph executive summary
2. KEY POINTS - Bullet points of main discussion topics
3. ACTION ITEMS - Tasks with assignees and deadlines if mentioned
4. DECISIONS - Key decisions that were made`

const generalInstructions = `Please analyze this meeting transcript and provide:

1. **SUMMARY**: A concise 2-3 paragraph summary of what was discussed
2. **KEY POINTS**: The main topics and discussion points as bullet points
3. **ACTION ITEMS**: Any tasks or follow-ups mentioned. Format each as:
   - [Assignee]: Task description (Due: date if mentioned)
4. **DECISIONS**: Any decisions or conclusions reached`

var builtin = []Template{
	{
		Type:         General,
		Name:         "General Meeting",
		Description:  "Standard meeting summary format",
		Sections:     []string{"Summary", "Key Points", "Action Items", "Decisions"},
		FocusOn:      []string{"decisions", "action items", "key topics"},
		SystemPrompt: generalSystem,
		Instructions: generalInstructions,
	},
	{
		Type:        Standup,
		Name:        "Daily Standup",
		Description: "Quick daily sync (yesterday, today, blockers)",
		Sections:    []string{"Updates by Person", "Blockers", "Follow-ups"},
		FocusOn:     []string{"progress", "blockers", "today's plan"},
		SystemPrompt: `You are summarizing a daily standup meeting.
Extract what each person did yesterday, what they are doing today, and any blockers.
Keep it brief and structured.`,
		Instructions: `Summarize this standup. For each speaker, extract:

**[Speaker Name]**
- Yesterday: What they completed
- Today: What they are working on
- Blockers: Any impediments

Then list:
**Team Blockers**: Issues affecting multiple people
**Follow-ups Needed**: Items requiring follow-up`,
		Keywords: []string{"yesterday", "today", "blocker", "standup", "daily"},
		QAPrompts: []QAPrompt{
			{Prompt: "Who owns resolving the blockers raised in this standup?", Triggers: []string{"blocker", "blocked", "stuck"}},
		},
	},
	{
		Type:        OneOnOne,
		Name:        "1:1 Meeting",
		Description: "Manager-report or peer 1:1",
		Sections:    []string{"Discussion Topics", "Feedback Given", "Action Items", "Follow-up Items"},
		FocusOn:     []string{"feedback", "concerns", "growth"},
		SystemPrompt: `You are summarizing a 1:1 meeting. Focus on topics discussed and concerns raised,
feedback exchanged, career and growth discussions, and agreed action items.
Keep the tone professional.`,
		Instructions: `Summarize this 1:1 meeting:

**Topics Discussed**: Main subjects covered
**Concerns Raised**: Issues or challenges mentioned
**Feedback**: Any feedback given
**Growth/Career**: Career development topics if discussed
**Follow-up**: Items to revisit in the next 1:1`,
		Keywords: []string{"feedback", "career", "growth", "1:1", "one on one", "check-in"},
		QAPrompts: []QAPrompt{
			{Prompt: "Which topics should be revisited in the next 1:1?"},
		},
	},
	{
		Type:        ClientCall,
		Name:        "Client Meeting",
		Description: "External client or stakeholder meeting",
		Sections:    []string{"Meeting Purpose", "Client Requests", "Commitments Made", "Next Steps", "Risks/Concerns"},
		FocusOn:     []string{"commitments", "deadlines", "client needs", "risks"},
		SystemPrompt: `You are summarizing a client meeting. Be precise about what the client asked for,
what was promised or committed, deadlines mentioned, and any concerns or risks.
This summary may be shared with leadership.`,
		Instructions: `Summarize this client meeting professionally:

**Meeting Purpose**: Why we met
**Attendees**: Who was present (client side and our side)
**Client Requests**: What the client asked for or needs
**Our Commitments**: What we agreed to deliver
**Timeline**: Any dates or deadlines mentioned
**Risks/Concerns**: Potential issues flagged`,
		Keywords: []string{"client", "customer", "proposal", "contract", "deliverable"},
		QAPrompts: []QAPrompt{
			{Prompt: "Which participants were on the client side?"},
			{Prompt: "What exactly was committed to the client, and by when?", Triggers: []string{"deliver", "commit", "promise", "contract"}},
		},
	},
	{
		Type:        Interview,
		Name:        "Interview",
		Description: "Candidate interview debrief",
		Sections:    []string{"Candidate Background", "Technical Assessment", "Cultural Fit", "Concerns", "Recommendation"},
		FocusOn:     []string{"skills", "experience", "fit", "concerns"},
		SystemPrompt: `You are summarizing a job interview. Focus on the candidate's experience and skills,
the questions asked, how well they would fit the team, and any concerns.
Be objective and fact-based.`,
		Instructions: `Summarize this interview:

**Candidate**: Name if mentioned
**Role**: Position discussed
**Experience Discussed**: Background and relevant experience
**Skills Demonstrated**: Technical or soft skills shown
**Concerns**: Any red flags or gaps
**Strengths**: Notable positives
**Interviewer Recommendation**: Hire or no-hire signals if expressed`,
		Keywords: []string{"candidate", "interview", "hiring", "resume", "experience"},
		QAPrompts: []QAPrompt{
			{Prompt: "Which role was the candidate interviewing for?"},
		},
	},
	{
		Type:        Brainstorm,
		Name:        "Brainstorming Session",
		Description: "Creative ideation session",
		Sections:    []string{"Problem Statement", "Ideas Generated", "Top Ideas", "Next Steps"},
		FocusOn:     []string{"ideas", "creativity"},
		SystemPrompt: `You are summarizing a brainstorming session. Capture the problem being solved,
all ideas mentioned, which ideas got traction, and next steps to explore them.`,
		Instructions: `Summarize this brainstorm:

**Problem/Goal**: What we are trying to solve
**Ideas Generated**: All ideas mentioned, one brief bullet each
**Promising Directions**: Ideas the group seemed excited about
**Ideas to Explore Further**: What to research or prototype`,
		Keywords: []string{"idea", "brainstorm", "creative", "what if", "possibility"},
		QAPrompts: []QAPrompt{
			{Prompt: "Which ideas should be taken forward, and who owns each?"},
		},
	},
	{
		Type:        Review,
		Name:        "Review Meeting",
		Description: "Code, design or document review",
		Sections:    []string{"What Was Reviewed", "Feedback Given", "Changes Requested", "Approved Items", "Next Steps"},
		FocusOn:     []string{"feedback", "changes", "approvals", "blockers"},
		SystemPrompt: `You are summarizing a review meeting (code, design, or document review).
Focus on specific feedback given, changes requested, and what was approved.`,
		Instructions: `Summarize this review:

**Subject of Review**: What was being reviewed
**Positive Feedback**: What was praised
**Changes Requested**: Specific modifications needed
**Blocked Items**: What cannot proceed
**Approved Items**: What is ready to go`,
		Keywords: []string{"review", "feedback", "approve", "changes", "lgtm"},
		QAPrompts: []QAPrompt{
			{Prompt: "What exactly was under review (document, design or change)?"},
		},
	},
	{
		Type:        Planning,
		Name:        "Planning Meeting",
		Description: "Sprint, project or roadmap planning",
		Sections:    []string{"Goals", "Items Planned", "Assignments", "Capacity", "Risks", "Dependencies"},
		FocusOn:     []string{"commitments", "assignments", "dependencies", "risks"},
		SystemPrompt: `You are summarizing a planning meeting. Capture what is being planned,
items committed to, who owns what, capacity or timeline concerns, and dependencies and risks.`,
		Instructions: `Summarize this planning session:

**Planning Period**: What timeframe (sprint, quarter, etc.)
**Goals/Objectives**: What we are trying to achieve
**Items Committed**: Work items or stories planned
**Assignments**: Who is doing what
**Capacity Notes**: Team availability or concerns
**Dependencies**: External dependencies identified
**Risks**: Potential blockers`,
		Keywords: []string{"sprint", "planning", "story points", "capacity", "backlog"},
		QAPrompts: []QAPrompt{
			{Prompt: "What period does this plan cover (sprint, quarter or release)?"},
		},
	},
	{
		Type:        Retrospective,
		Name:        "Retrospective",
		Description: "Team retrospective (went well, did not go well, actions)",
		Sections:    []string{"What Went Well", "What Didn't Go Well", "Action Items", "Shoutouts"},
		FocusOn:     []string{"positives", "negatives", "improvements", "appreciation"},
		SystemPrompt: `You are summarizing a team retrospective. Capture both positives and areas for improvement.
Note specific action items to address issues and any team shoutouts.`,
		Instructions: `Summarize this retrospective:

**What Went Well**
- Positive things mentioned

**What Didn't Go Well**
- Challenges or frustrations

**Shoutouts**
- Team member appreciation

**Key Theme**: Overall sentiment of the retro`,
		Keywords: []string{"retro", "went well", "improve", "what worked", "kudos"},
		QAPrompts: []QAPrompt{
			{Prompt: "Who owns each improvement the team agreed on?", Triggers: []string{"improve", "change", "try"}},
		},
	},
}
