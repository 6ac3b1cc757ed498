package catalog

import "github.com/kiranshivaraju/recruitflow/pkg/models"

var builtinJobs = []models.JobRecord{
	{
		ID:       "software-engineer",
		Title:    "Software Engineer",
		Category: "engineering",
		Description: `Software Engineer

Responsibilities:
- Design, develop, and maintain high-quality software solutions
- Write clean, efficient, and maintainable code
- Collaborate with cross-functional teams to define and implement new features
- Troubleshoot and debug applications
- Participate in code reviews and contribute to team knowledge sharing

Requirements:
- Bachelor's degree in Computer Science or related field
- 3+ years of experience in software development
- Proficiency in Python, Java, or similar programming languages
- Experience with cloud technologies (AWS, Azure, or GCP)
- Knowledge of software engineering best practices
- Strong problem-solving skills and attention to detail
- Excellent communication and teamwork abilities`,
	},
	{
		ID:       "data-scientist",
		Title:    "Data Scientist",
		Category: "data",
		Description: `Data Scientist

Responsibilities:
- Develop and implement advanced analytics models and algorithms
- Process, cleanse, and validate data for analysis
- Build and optimize classifiers using machine learning techniques
- Identify patterns and insights in large datasets
- Present findings to stakeholders and recommend solutions

Requirements:
- Master's or PhD in Data Science, Computer Science, Statistics, or related field
- 2+ years of experience in data science or related field
- Strong programming skills in Python, R, or similar languages
- Experience with machine learning libraries (e.g., TensorFlow, PyTorch, scikit-learn)
- Knowledge of data visualization techniques and tools
- Excellent problem-solving and analytical thinking skills
- Ability to communicate complex findings to technical and non-technical audiences`,
	},
	{
		ID:       "devops-engineer",
		Title:    "DevOps Engineer",
		Category: "operations",
		Description: `DevOps Engineer

Responsibilities:
- Build and maintain CI/CD pipelines
- Implement and manage infrastructure as code using tools like Terraform
- Monitor system performance and troubleshoot issues
- Automate deployment processes and system configurations
- Collaborate with development and operations teams

Requirements:
- Bachelor's degree in Computer Science or related field
- 3+ years of experience in DevOps or related roles
- Strong knowledge of Linux/Unix systems administration
- Experience with containerization technologies (Docker, Kubernetes)
- Proficiency in scripting languages (Python, Bash, etc.)
- Experience with CI/CD tools (Jenkins, GitLab CI, GitHub Actions)
- Knowledge of cloud platforms (AWS, Azure, or GCP)`,
	},
}
