package render

const layoutTemplate = `{{define "layout_head"}}<!DOCTYPE html>
<html lang="tr">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.}} - FriendZone</title>
  <link rel="stylesheet" href="/static/css/style.css">
  <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.4.0/css/all.min.css">
</head>
<body>{{end}}
{{define "layout_foot"}}<script src="/static/js/app.js"></script>
</body>
</html>{{end}}
{{define "user_badge"}}{{if .}}<div class="user-badge"><div class="user-avatar" id="userAvatar">{{.Initial}}</div><span id="userName">{{.Name}}</span></div>{{end}}{{end}}
{{define "notices"}}{{if .}}<div class="notices" data-pending="true">{{range .}}<div class="notification notification-{{.Kind}}" data-notice-id="{{.ID}}">{{.Message}}</div>{{end}}</div>{{end}}{{end}}`

const listTemplate = `{{define "community_card"}}<div class="community-card{{if .Recommended}} recommended{{end}}" data-community-id="{{.Community.ID}}" data-category="{{.Community.Category}}"{{if .Hidden}} style="display: none"{{end}}>
  <div class="community-header">
    <div class="community-icon"><i class="fas {{.Community.Category.Icon}}"></i></div>
    <div class="community-info">
      <div class="community-name">{{.Community.Name}}</div>
      <div class="community-category">{{.Community.Category.Label}}</div>
      <div class="community-description">{{.Community.Description}}</div>
    </div>
  </div>
  <div class="community-stats">
    <div class="stat">
      <div class="stat-number">{{if .Recommended}}{{.Community.MemberCount}}{{else}}{{.Community.MemberCount}}/{{.Community.MaxMembers}}{{end}}</div>
      <div class="stat-label">Üye</div>
    </div>
    <div class="compatibility-score">
      <div class="score-value">%{{.Community.CompatibilityPercent}}</div>
      <div class="score-label">Uyum</div>
    </div>
  </div>
  <div class="community-actions">
    <form method="post" action="/communities/{{.Community.ID}}/join">
      <button type="submit" class="btn btn-primary btn-join{{if .Community.IsMember}} btn-joined{{end}}" data-community-id="{{.Community.ID}}">
        <i class="fas {{if .Community.IsMember}}fa-check{{else}}fa-plus{{end}}"></i>
        {{if .Community.IsMember}}Katıldın{{else}}Topluluğa Katıl{{end}}
      </button>
    </form>
  </div>
</div>{{end}}
{{define "region_error"}}<div class="empty-state">
  <div class="empty-icon"><i class="fas fa-exclamation-triangle"></i></div>
  <h3>{{.}}</h3>
  <p>Lütfen daha sonra tekrar deneyin</p>
</div>{{end}}
{{define "region_loading"}}<div class="region-loading"><div class="loading-spinner"></div></div>{{end}}
{{define "region_fetch"}}<script>
document.querySelectorAll('[data-state="loading"][data-src]').forEach(function (el) {
  fetch(el.dataset.src, {credentials: 'same-origin', headers: {Accept: 'text/html'}})
    .then(function (resp) { return resp.ok ? resp.text() : Promise.reject(resp.status); })
    .then(function (html) { el.outerHTML = html; })
    .catch(function () {});
});
</script>{{end}}
{{define "region_joined"}}<div id="userCommunitiesList" data-region="joined" data-state="{{.Joined.State}}"{{if eq .Joined.State "loading"}} data-src="/communities/regions/joined"{{end}}>
{{- if eq .Joined.State "error"}}{{template "region_error" "Toplulukların yüklenemedi"}}
{{- else if eq .Joined.State "loading"}}{{template "region_loading"}}
{{- else if eq .Joined.State "empty"}}<div class="sidebar-community"><div class="community-dot"></div><span>Henüz topluluğun yok</span></div>
{{- else}}{{range .Joined.Communities}}<a class="sidebar-community" href="/communities/{{.ID}}" data-community-id="{{.ID}}"><div class="community-dot"></div><span>{{.Name}}</span></a>{{end}}{{end}}
</div>{{end}}
{{define "region_recommended"}}<div id="recommendationsGrid" data-region="recommended" data-state="{{.Recommended.State}}"{{if eq .Recommended.State "loading"}} data-src="/communities/regions/recommended"{{end}}>
{{- if eq .Recommended.State "error"}}{{template "region_error" "Öneriler yüklenemedi"}}
{{- else if eq .Recommended.State "loading"}}{{template "region_loading"}}
{{- else if eq .Recommended.State "empty"}}<div class="empty-state">
  <div class="empty-icon"><i class="fas fa-users"></i></div>
  <h3>Henüz öneri yok</h3>
  <p>Testleri tamamladıktan sonra öneriler burada görünecek</p>
</div>
{{- else}}{{$s := .}}{{range .Recommended.Communities}}{{template "community_card" (card . true ($s.IsHidden .ID))}}{{end}}{{end}}
</div>{{end}}
{{define "region_all"}}<div id="communitiesGrid" data-region="all" data-state="{{.All.State}}"{{if eq .All.State "loading"}} data-src="/communities/regions/all"{{end}}>
{{- if eq .All.State "error"}}{{template "region_error" "Topluluklar yüklenemedi"}}
{{- else if eq .All.State "loading"}}{{template "region_loading"}}
{{- else if eq .All.State "empty"}}<div class="empty-state"><h3>Henüz topluluk yok</h3></div>
{{- else}}{{$s := .}}{{range .All.Communities}}{{template "community_card" (card . false ($s.IsHidden .ID))}}{{end}}{{end}}
</div>{{end}}
{{define "region_similar"}}<div id="similarUsersGrid" data-region="similar" data-state="{{.Similar.State}}"{{if eq .Similar.State "loading"}} data-src="/communities/regions/similar"{{end}}>
{{- if eq .Similar.State "error"}}{{template "region_error" "Benzer kullanıcılar yüklenemedi"}}
{{- else if eq .Similar.State "loading"}}{{template "region_loading"}}
{{- else if eq .Similar.State "empty"}}<div class="empty-state">
  <div class="empty-icon"><i class="fas fa-user-friends"></i></div>
  <h3>Henüz benzer kullanıcı bulunamadı</h3>
  <p>Daha fazla öğrenci katıldıkça benzerlikler görünecek</p>
</div>
{{- else}}{{range .Similar.Users}}<div class="user-card">
  <div class="user-avatar">{{.User.Initial}}</div>
  <div class="user-name">{{.User.Name}}</div>
  <div class="user-university">{{.User.University}}</div>
  <div class="similarity-score">%{{.Percent}} Uyum</div>
  <div class="user-hobbies">{{range firstHobbies .User.Hobbies}}<span class="hobby-tag">{{.}}</span>{{end}}{{with extraHobbies .User.Hobbies}}<span class="hobby-tag">+{{.}}</span>{{end}}</div>
</div>{{end}}{{end}}
</div>{{end}}
{{define "create_dialog"}}<div class="modal{{if .}} show{{end}}" id="createCommunityModal">
  <form method="post" action="/communities" class="create-community-form">
    <input name="name" required placeholder="Topluluk adı">
    <textarea name="description" required placeholder="Açıklama"></textarea>
    <select name="category" required>{{range categories}}<option value="{{.}}">{{.Label}}</option>{{end}}</select>
    <input name="max_members" type="number" min="2" max="500" value="20">
    <input name="tags" placeholder="etiket1, etiket2">
    <button type="submit" class="btn btn-primary">Oluştur</button>
  </form>
</div>{{end}}
{{define "list_page"}}{{template "layout_head" "Topluluklar"}}
{{template "user_badge" .User}}
{{template "notices" .Notices}}
<aside class="sidebar">{{template "region_joined" .}}</aside>
<main class="communities">
  <div class="filters" data-query="{{.Query}}" data-category="{{.Category}}">
    <input type="search" id="communitySearch" value="{{.Query}}" placeholder="Topluluk ara...">
    <select id="categoryFilter"><option value="">Tümü</option>{{$current := .Category}}{{range categories}}<option value="{{.}}"{{if eq (print .) $current}} selected{{end}}>{{.Label}}</option>{{end}}</select>
  </div>
  <section>{{template "region_recommended" .}}</section>
  <section>{{template "region_all" .}}</section>
  <section>{{template "region_similar" .}}</section>
</main>
{{template "create_dialog" .CreateDialogOpen}}
{{template "region_fetch"}}
{{template "layout_foot"}}{{end}}`

const detailTemplate = `{{define "chat_message"}}<div class="chat-message" data-message-id="{{.ID}}">
  <div class="message-avatar">{{.Initial}}</div>
  <div class="message-content">
    <div class="message-header">
      <span class="message-sender">{{.UserName}}</span>
      <span class="message-time">{{ago .Timestamp}}</span>
    </div>
    <div class="message-text">{{.Content}}</div>
  </div>
</div>{{end}}
{{define "chat_messages"}}<div id="chatMessages">{{range .}}{{template "chat_message" .}}{{end}}</div>{{end}}
{{define "members"}}<div id="membersList">{{range .}}<div class="member-item {{if .IsOnline}}online{{else}}offline{{end}}">
  <div class="member-avatar">{{.Initial}}<div class="status-indicator {{if .IsOnline}}online{{else}}offline{{end}}"></div></div>
  <div class="member-info">
    <div class="member-name">{{.Name}}{{if eq .Role "admin"}} <span class="role-badge">Admin</span>{{end}}</div>
    <div class="member-department">{{.Department}}</div>
  </div>
</div>{{end}}</div>{{end}}
{{define "activities"}}<div id="activitiesList">{{range .}}<div class="activity-item">
  <div class="activity-icon"><i class="fas {{.Icon}}"></i></div>
  <div class="activity-content">
    <div class="activity-text"><strong>{{.UserName}}</strong> {{.Content}}</div>
    <div class="activity-time">{{ago .Timestamp}}</div>
  </div>
</div>{{end}}</div>{{end}}
{{define "stats"}}<div id="communityStats">
  <div class="stat-item"><div class="stat-value">{{.ActiveMembers}}</div><div class="stat-label">Aktif Üye</div></div>
  <div class="stat-item"><div class="stat-value">{{.AvgCompatibility}}%</div><div class="stat-label">Ort. Uyum</div></div>
  <div class="stat-item"><div class="stat-value">{{.ActivitiesThisWeek}}</div><div class="stat-label">Bu Hafta</div></div>
  <div class="stat-item"><div class="stat-value">{{.ResponseTimeHours}}h</div><div class="stat-label">Yanıt Süresi</div></div>
</div>{{end}}
{{define "suggestion"}}<div class="response-suggestion{{if .Fallback}} fallback{{end}}">
  <div class="suggestion-header">
    <i class="fas {{if .Fallback}}fa-exclamation-triangle{{else}}{{suggestionIcon .Type}}{{end}}"></i>
    <h4>{{.Title}}</h4>
  </div>
  <div class="suggestion-content">{{trusted .HTML}}</div>
  {{- if .Fallback}}
  <div class="suggestion-note"><i class="fas fa-info-circle"></i> Gerçek API entegrasyonu ile kişiselleştirilmiş öneriler alacaksınız</div>
  {{- end}}
</div>{{end}}
{{define "detail_page"}}{{template "layout_head" .Community.Name}}
{{template "user_badge" .User}}
{{template "notices" .Notices}}
<header class="community-header-detail" data-community-id="{{.Community.ID}}"{{if .Degraded}} data-degraded="true"{{end}}>
  <i id="communityHeaderIcon" class="fas {{.Community.Category.Icon}}"></i>
  <h1 id="communityName">{{.Community.Name}}</h1>
  <p id="communityDescription">{{.Community.Description}}</p>
  <span id="memberCountText">{{.Community.MemberCount}} üye</span>
  <span id="compatibilityScore"><i class="fas fa-heart"></i> %{{.Community.CompatibilityPercent}} uyum</span>
  <span id="communityCategory"><i class="fas fa-tag"></i> {{.Community.Category.Label}}</span>
</header>
<aside class="sidebar">
  <div id="communitySidebarInfo"><div class="sidebar-community active"><div class="community-dot"></div><span>{{.Community.Name}}</span></div></div>
  <span id="sidebarMemberCount">{{.Community.MemberCount}} üye</span>
  {{template "stats" .Stats}}
  {{template "members" .Members}}
</aside>
<main class="community-chat">
  {{template "chat_messages" .Chat}}
  <form method="post" action="/communities/{{.Community.ID}}/messages" class="chat-composer">
    <input name="text" autocomplete="off" placeholder="Mesajınızı yazın...">
    <button type="submit" class="btn btn-primary"><i class="fas fa-paper-plane"></i></button>
  </form>
</main>
<section class="community-activities">{{template "activities" .Activities}}</section>
<div id="assistantResponse"></div>
{{template "layout_foot"}}{{end}}`
