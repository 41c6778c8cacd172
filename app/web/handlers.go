package web

import (
	"bytes"
	"context"
	"errors"
	"image"
	"net/http"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/whale-jobs/whale/app/enhance"
	"github.com/whale-jobs/whale/app/guestbook"
	"github.com/whale-jobs/whale/app/store"
	"github.com/whale-jobs/whale/app/upload"
	"github.com/whale-jobs/whale/app/web/enums"
)

const (
	alertSuccess = "success"
	alertWarning = "warning"
	alertError   = "error"
)

// handleHome renders the welcome page
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := s.newTemplateData(r, enums.PageHome)
	data.TotalCount = s.store.Len()
	s.render(w, enums.PageHome.String(), "base", data)
}

// handleJobsPage renders postings list with search box and the post form
func (s *Server) handleJobsPage(w http.ResponseWriter, r *http.Request) {
	data := s.newTemplateData(r, enums.PageJobs)
	data.Search = r.FormValue("search")
	data.Postings = s.store.Search(data.Search)
	data.TotalCount = s.store.Len()
	s.render(w, enums.PageJobs.String(), "base", data)
}

// handleJobsPartial returns the filtered postings list for HTMX search
func (s *Server) handleJobsPartial(w http.ResponseWriter, r *http.Request) {
	data := s.newTemplateData(r, enums.PageJobs)
	data.Search = r.FormValue("search")
	data.Postings = s.store.Search(data.Search)
	data.TotalCount = s.store.Len()
	s.render(w, "partials", "job-list", data)
}

// handleCreatePosting adds a posting from the form. The success message is shown only after
// the posting is persisted, the list is refreshed by "postings-changed" trigger.
func (s *Server) handleCreatePosting(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderAlert(w, http.StatusBadRequest, alertWarning, "无法解析表单。")
		return
	}

	p := postingFromForm(r)
	if err := p.Validate(); err != nil {
		log.Printf("[DEBUG] rejected posting: %v", err)
		s.renderAlert(w, http.StatusBadRequest, alertWarning, "请填写完整信息。")
		return
	}

	postings, err := s.store.Append(p)
	if err != nil {
		log.Printf("[ERROR] failed to add posting: %v", err)
		s.renderAlert(w, http.StatusInternalServerError, alertError, "发布失败，岗位未保存，请稍后重试。")
		return
	}
	created := postings[len(postings)-1]
	log.Printf("[INFO] new posting %d %q at %q", created.ID, created.Title, created.Company)

	s.notify(r, func(ctx context.Context, n Notifier) error { return n.OnPosting(ctx, created) })

	w.Header().Set("HX-Trigger", "postings-changed")
	s.renderAlert(w, http.StatusOK, alertSuccess, "🎉 成功发布兼职！")
}

// handleResumePage renders resume upload page
func (s *Server) handleResumePage(w http.ResponseWriter, r *http.Request) {
	data := s.newTemplateData(r, enums.PageResume)
	data.Extensions = s.resumes.Extensions()
	s.render(w, enums.PageResume.String(), "base", data)
}

// handleResumeUpload stores uploaded resume and reports the stored name
func (s *Server) handleResumeUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("resume")
	if err != nil {
		s.renderAlert(w, http.StatusBadRequest, alertWarning, "请选择简历文件（PDF/Word）。")
		return
	}
	defer file.Close()

	stored, err := s.resumes.Save(header.Filename, file)
	switch {
	case errors.Is(err, upload.ErrUnsupportedType):
		s.renderAlert(w, http.StatusBadRequest, alertWarning, "仅支持 "+strings.Join(s.resumes.Extensions(), ", ")+" 文件。")
		return
	case errors.Is(err, upload.ErrInvalidName):
		s.renderAlert(w, http.StatusBadRequest, alertWarning, "文件名无效。")
		return
	case errors.Is(err, upload.ErrTooLarge):
		s.renderAlert(w, http.StatusRequestEntityTooLarge, alertWarning, "文件过大。")
		return
	case err != nil:
		log.Printf("[ERROR] failed to save resume %q: %v", header.Filename, err)
		s.renderAlert(w, http.StatusInternalServerError, alertError, "简历保存失败，请稍后重试。")
		return
	}
	s.renderAlert(w, http.StatusOK, alertSuccess, "✅ 简历上传成功："+stored)
}

// handleImagePage renders image enhancement page
func (s *Server) handleImagePage(w http.ResponseWriter, r *http.Request) {
	data := s.newTemplateData(r, enums.PageImage)
	data.Extensions = enhance.ImageExtensions
	s.render(w, enums.PageImage.String(), "base", data)
}

// handleImageUpload decodes uploaded image, keeps it in workspace and returns the editor partial
func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		s.renderAlert(w, http.StatusBadRequest, alertWarning, "请选择图片文件。")
		return
	}
	defer file.Close()

	img, err := enhance.Decode(header.Filename, file, s.maxImagePixels)
	if err != nil {
		log.Printf("[WARN] can't decode image %q: %v", header.Filename, err)
		msg := "无法读取图片。"
		switch {
		case errors.Is(err, enhance.ErrUnsupportedType):
			msg = "仅支持 " + strings.Join(enhance.ImageExtensions, ", ") + " 图片。"
		case errors.Is(err, enhance.ErrTooLarge):
			msg = "图片尺寸过大。"
		}
		s.renderAlert(w, http.StatusBadRequest, alertWarning, msg)
		return
	}

	data := s.newTemplateData(r, enums.PageImage)
	data.ImageID = s.images.Put(img)
	s.render(w, "partials", "image-editor", data)
}

// handleImagePreview returns enhanced image as png
func (s *Server) handleImagePreview(w http.ResponseWriter, r *http.Request) {
	img, params, ok := s.enhancedImage(w, r)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	if err := enhance.EncodePNG(buf, enhance.Apply(img, params)); err != nil {
		log.Printf("[ERROR] failed to encode preview: %v", err)
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write preview: %v", err)
	}
}

// handleImageSave writes enhanced image to the output file
func (s *Server) handleImageSave(w http.ResponseWriter, r *http.Request) {
	img, params, ok := s.enhancedImage(w, r)
	if !ok {
		return
	}
	if err := enhance.SavePNG(s.outputImage, enhance.Apply(img, params)); err != nil {
		log.Printf("[ERROR] failed to save enhanced image: %v", err)
		s.renderAlert(w, http.StatusInternalServerError, alertError, "图像保存失败。")
		return
	}
	log.Printf("[INFO] enhanced image saved to %s, brightness %.2f, contrast %.2f", s.outputImage, params.Brightness, params.Contrast)
	s.renderAlert(w, http.StatusOK, alertSuccess, "🌟 图像已保存至 "+s.outputImage)
}

// enhancedImage gets workspace image and enhancement factors from request, writes error response if any
func (s *Server) enhancedImage(w http.ResponseWriter, r *http.Request) (image.Image, enhance.Params, bool) {
	params, err := paramsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, params, false
	}
	img, err := s.images.Get(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, params, false
	}
	return img, params, true
}

// handleContactPage renders guestbook form
func (s *Server) handleContactPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, enums.PageContact.String(), "base", s.newTemplateData(r, enums.PageContact))
}

// handleContact records guestbook message
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderAlert(w, http.StatusBadRequest, alertWarning, "无法解析表单。")
		return
	}
	msg := guestbook.Message{
		Name:  strings.TrimSpace(r.PostFormValue("name")),
		Email: strings.TrimSpace(r.PostFormValue("email")),
		Text:  r.PostFormValue("message"),
	}
	if strings.TrimSpace(msg.Text) == "" {
		s.renderAlert(w, http.StatusBadRequest, alertWarning, "请填写留言内容。")
		return
	}

	if err := s.guestbook.Add(msg); err != nil {
		log.Printf("[ERROR] failed to record message: %v", err)
		s.renderAlert(w, http.StatusInternalServerError, alertError, "留言保存失败，请稍后重试。")
		return
	}

	s.notify(r, func(ctx context.Context, n Notifier) error { return n.OnMessage(ctx, msg) })
	s.renderAlert(w, http.StatusOK, alertSuccess, "✅ 留言已提交，谢谢反馈！")
}

// handleThemeToggle toggles light/dark theme cookie
func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	nextTheme := enums.ThemeDark
	if s.getTheme(r) == enums.ThemeDark {
		nextTheme = enums.ThemeLight
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "theme",
		Value:    nextTheme.String(),
		Path:     s.cookiePath(),
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// trigger full page refresh for theme change
	w.Header().Set("HX-Refresh", "true")
	w.WriteHeader(http.StatusOK)
}

// renderAlert renders alert partial with the given status
func (s *Server) renderAlert(w http.ResponseWriter, status int, kind, text string) {
	s.renderStatus(w, status, "partials", "alert", Alert{Kind: kind, Text: text})
}

// postingFromForm makes posting from submitted form
func postingFromForm(r *http.Request) store.Posting {
	return store.Posting{
		Title:       r.PostFormValue("title"),
		Company:     r.PostFormValue("company"),
		Salary:      r.PostFormValue("salary"),
		Location:    r.PostFormValue("location"),
		Description: r.PostFormValue("description"),
	}
}

// paramsFromRequest parses brightness and contrast factors, missing ones are 1.0
func paramsFromRequest(r *http.Request) (enhance.Params, error) {
	res := enhance.Params{Brightness: enhance.DefaultFactor, Contrast: enhance.DefaultFactor}
	parse := func(name string, dst *float64) error {
		v := r.FormValue(name)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.New("invalid " + name + " " + strconv.Quote(v))
		}
		*dst = f
		return nil
	}
	if err := parse("brightness", &res.Brightness); err != nil {
		return res, err
	}
	if err := parse("contrast", &res.Contrast); err != nil {
		return res, err
	}
	return res, res.Validate()
}
