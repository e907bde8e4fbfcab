package question

// DefaultQuestions returns the built-in question list. A fresh slice is
// returned on every call so callers cannot mutate a shared default.
func DefaultQuestions() []Question {
	return []Question{
		{
			ID:             "apples",
			Prompt:         "一个篮子里有15个苹果。如果小明拿走了3个，然后小红又放入了比现在篮子里苹果数多一半的苹果，最后篮子里有多少个苹果？",
			ExpectedAnswer: "30",
			Metadata: map[string]string{
				"rationale": "多步算术题，容易在'比现在多一半'的语义上出错。",
			},
		},
		{
			ID:             "cats",
			Prompt:         "如果三只猫三天能捉三只老鼠，那么九只猫九天能捉多少只老鼠？",
			ExpectedAnswer: "27",
			Metadata: map[string]string{
				"rationale": "比例推理题，考察单位速率是否被正确抽象。",
			},
		},
		{
			ID:             "queue",
			Prompt:         "我前面有两个人，后面有两个人，我们这一排一共有多少人？",
			ExpectedAnswer: "5",
			Metadata: map[string]string{
				"rationale": "空间关系题，Zero-Shot常把答案误判为4。",
			},
		},
	}
}
